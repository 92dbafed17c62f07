package assignment

import (
	"context"
	"fmt"

	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"github.com/jabbar-dev/bnb-aimtech/internal/repository"
)

// DefaultScanWindow 每个来源扫描的记录数
const DefaultScanWindow = 10

// FallbackSource 回退到全部宿管时的来源名
const FallbackSource = "all-wardens"

// Directory 审批人目录
type Directory interface {
	// ValidApprovers 过滤出当前仍有审批资格的 ID,保持顺序
	ValidApprovers(ctx context.Context, ids []string) ([]string, error)
	// AllApprovers 返回全部有审批资格的 ID
	AllApprovers(ctx context.Context) ([]string, error)
}

// userDirectory 以用户表中的在职宿管作为审批人
type userDirectory struct {
	users repository.UserRepository
}

// NewDirectory 创建基于用户表的审批人目录
func NewDirectory(users repository.UserRepository) Directory {
	return &userDirectory{users: users}
}

func (d *userDirectory) ValidApprovers(ctx context.Context, ids []string) ([]string, error) {
	return d.users.FilterActiveByRole(ctx, ids, model.RoleWarden)
}

func (d *userDirectory) AllApprovers(ctx context.Context) ([]string, error) {
	wardens, err := d.users.ListActiveByRole(ctx, model.RoleWarden)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(wardens))
	for _, w := range wardens {
		ids = append(ids, w.ID)
	}
	return ids, nil
}

// Resolution 审批人解析结果
type Resolution struct {
	ApproverIDs []string
	Source      string // 命中的来源名,回退时为 FallbackSource
	StaleSource string // 命中了但审批人全部失效的来源
	RecordID    string
	Fallback    bool
}

// Resolver 按来源优先级解析审批人
type Resolver struct {
	sources []Source
	dir     Directory
	window  int
}

// NewResolver 创建解析器
func NewResolver(sources []Source, dir Directory, window int) *Resolver {
	if window <= 0 {
		window = DefaultScanWindow
	}
	return &Resolver{sources: sources, dir: dir, window: window}
}

// Resolve 返回某分区当前负责的审批人
// 依次扫描各来源最新的记录,第一条该分区列表非空的记录即为结果,过滤为有效审批人
// 命中后不再查询后续记录或来源,也不合并
// 没有任何记录命中,或命中记录中没有有效审批人时回退到所有宿管并设置 Fallback,
// 此时 ApproverIDs 仍可能为空
func (r *Resolver) Resolve(ctx context.Context, category model.Category) (*Resolution, error) {
	for _, src := range r.sources {
		records, err := src.Recent(ctx, r.window)
		if err != nil {
			return nil, fmt.Errorf("assignment source %s: %w", src.Name(), err)
		}

		for _, rec := range records {
			ids := rec.For(category)
			if len(ids) == 0 {
				continue
			}
			valid, err := r.dir.ValidApprovers(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("failed to validate approvers: %w", err)
			}
			if len(valid) == 0 {
				// 配置里的人都已失效,按未配置处理
				return r.fallback(ctx, src.Name(), rec.ID)
			}
			return &Resolution{ApproverIDs: valid, Source: src.Name(), RecordID: rec.ID}, nil
		}
	}

	return r.fallback(ctx, "", "")
}

// fallback 回退到全部宿管,StaleSource/RecordID 记录失效的命中记录
func (r *Resolver) fallback(ctx context.Context, staleSource, recordID string) (*Resolution, error) {
	all, err := r.dir.AllApprovers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvers: %w", err)
	}
	return &Resolution{
		ApproverIDs: all,
		Source:      FallbackSource,
		StaleSource: staleSource,
		RecordID:    recordID,
		Fallback:    true,
	}, nil
}
