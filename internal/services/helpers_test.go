package services

import (
	"context"
	"fmt"
	"testing"

	"tourboard/internal/db"
	"tourboard/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 单连接内存库，外键开启；事务内只能用 tx 查询
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

type fixture struct {
	db            *gorm.DB
	notifications *NotificationService
	comments      *CommentService
	likes         *LikeService
	cascade       *CascadeService
	threads       *ThreadService
	users         *UserService
	reports       *ReportService
	admin         *AdminService
}

func newFixture(t *testing.T) *fixture {
	gdb := setupTestDB(t)
	log := zap.NewNop()
	notifications := NewNotificationService(gdb, log)
	cascade := NewCascadeService(gdb, log)
	return &fixture{
		db:            gdb,
		notifications: notifications,
		comments:      NewCommentService(gdb, log, notifications),
		likes:         NewLikeService(gdb, log),
		cascade:       cascade,
		threads:       NewThreadService(gdb, log, cascade),
		users:         NewUserService(gdb, log),
		reports:       NewReportService(gdb, log),
		admin:         NewAdminService(gdb),
	}
}

func (f *fixture) user(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "x", Nickname: username, Role: role}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) thread(t *testing.T, owner *models.User, title string) *models.Thread {
	t.Helper()
	th, err := f.threads.Create(context.Background(), owner.ID, ThreadInput{Title: title, Content: "body of " + title})
	require.NoError(t, err)
	return th
}

func (f *fixture) comment(t *testing.T, thread *models.Thread, author *models.User, parent *models.Comment) *models.Comment {
	t.Helper()
	in := CreateCommentInput{ThreadID: thread.ID, AuthorID: author.ID, Content: fmt.Sprintf("by %s", author.Username)}
	if parent != nil {
		in.ParentID = &parent.ID
	}
	c, err := f.comments.Create(context.Background(), in)
	require.NoError(t, err)
	return c
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (f *fixture) reload(t *testing.T, thread *models.Thread) *models.Thread {
	t.Helper()
	var th models.Thread
	require.NoError(t, f.db.Take(&th, thread.ID).Error)
	return &th
}

// failDeletesOn 让对指定表的删除语句失败，用来验证事务回滚
func failDeletesOn(t *testing.T, gdb *gorm.DB, table string) {
	t.Helper()
	name := "test:fail_delete_" + table
	err := gdb.Callback().Delete().Before("gorm:delete").Register(name, func(d *gorm.DB) {
		if d.Statement.Table == table {
			d.AddError(fmt.Errorf("injected failure deleting from %s", table))
		}
	})
	require.NoError(t, err)
}
