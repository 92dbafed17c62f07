package repository

import (
	"context"

	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"gorm.io/gorm"
)

// UserRepository 用户目录仓储接口
type UserRepository interface {
	Save(ctx context.Context, user *model.UserModel) error
	FindByID(ctx context.Context, id string) (*model.UserModel, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.UserModel, error)
	ListActiveByRole(ctx context.Context, role model.Role) ([]*model.UserModel, error)
	FilterActiveByRole(ctx context.Context, ids []string, role model.Role) ([]string, error)
}

// userRepository 用户目录仓储实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户目录仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Save 保存用户
func (r *userRepository) Save(ctx context.Context, user *model.UserModel) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// FindByID 根据 ID 查找用户
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.UserModel, error) {
	var user model.UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs 批量查找用户,不存在的 ID 被忽略
func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.UserModel, error) {
	var users []*model.UserModel
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&users).Error
	return users, err
}

// ListActiveByRole 列出某角色的所有在职用户
func (r *userRepository) ListActiveByRole(ctx context.Context, role model.Role) ([]*model.UserModel, error) {
	var users []*model.UserModel
	err := r.db.WithContext(ctx).
		Where("role = ? AND active = ?", role, true).
		Order("created_at ASC, id ASC").
		Find(&users).Error
	return users, err
}

// FilterActiveByRole 过滤出仍然有效的用户 ID,保持输入顺序
func (r *userRepository) FilterActiveByRole(ctx context.Context, ids []string, role model.Role) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var found []string
	err := r.db.WithContext(ctx).Model(&model.UserModel{}).
		Where("id IN ? AND role = ? AND active = ?", ids, role, true).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}

	valid := make(map[string]struct{}, len(found))
	for _, id := range found {
		valid[id] = struct{}{}
	}
	result := make([]string, 0, len(found))
	for _, id := range ids {
		if _, ok := valid[id]; ok {
			result = append(result, id)
			delete(valid, id)
		}
	}
	return result, nil
}
