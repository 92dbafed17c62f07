package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jabbar-dev/bnb-aimtech/internal/assignment"
	"github.com/jabbar-dev/bnb-aimtech/internal/database"
	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"github.com/jabbar-dev/bnb-aimtech/internal/notify"
	"github.com/jabbar-dev/bnb-aimtech/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 创建迁移好的内存数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// spyNotifier 记录业务发出的通知
type spyNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (n *spyNotifier) Notify(_ context.Context, msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *spyNotifier) byChannel(ch notify.Channel) []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Message
	for _, m := range n.msgs {
		if m.Channel == ch {
			out = append(out, m)
		}
	}
	return out
}

func (n *spyNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = nil
}

func seedUser(t *testing.T, db *gorm.DB, u model.UserModel) {
	t.Helper()
	if u.Name == "" {
		u.Name = u.ID
	}
	if u.Email == "" {
		u.Email = u.ID + "@bnbwu.edu.pk"
	}
	u.Active = true
	require.NoError(t, repository.NewUserRepository(db).Save(context.Background(), &u))
}

func deactivate(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, db.Model(&model.UserModel{}).Where("id = ?", id).Update("active", false).Error)
}

func newResolver(db *gorm.DB) *assignment.Resolver {
	return assignment.NewResolver(
		assignment.DefaultSources(repository.NewAssignmentRepository(db)),
		assignment.NewDirectory(repository.NewUserRepository(db)),
		assignment.DefaultScanWindow,
	)
}
