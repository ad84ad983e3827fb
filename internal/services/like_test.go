package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"tourboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func TestToggle_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", models.RoleUser)
	bob := f.user(t, "bob", models.RoleUser)
	thread := f.thread(t, alice, "t")

	res, err := f.likes.Toggle(ctx, thread.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, LikeCount: 1}, res)

	liked, err := f.likes.HasLiked(ctx, thread.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	res, err = f.likes.Toggle(ctx, thread.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, LikeCount: 0}, res)

	liked, err = f.likes.HasLiked(ctx, thread.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, f.count(t, &models.ThreadLike{}, ""))
	assert.Equal(t, 0, f.reload(t, thread).LikeCount)
}

func TestToggle_MissingEntities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", models.RoleUser)
	thread := f.thread(t, alice, "t")

	_, err := f.likes.Toggle(ctx, 999, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.likes.Toggle(ctx, thread.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, f.reload(t, thread).LikeCount)
}

func TestToggle_DuplicateInsertReportsLiked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", models.RoleUser)
	bob := f.user(t, "bob", models.RoleUser)
	thread := f.thread(t, alice, "t")

	// 模拟并发：查询时还没有记录，插入时另一个请求已经写入
	require.NoError(t, f.db.Create(&models.ThreadLike{UserID: bob.ID, ThreadID: thread.ID}).Error)
	require.NoError(t, f.db.Model(&models.Thread{}).Where("id = ?", thread.ID).UpdateColumn("like_count", 1).Error)
	err := f.db.Callback().Query().Before("gorm:query").Register("test:hide_like", func(d *gorm.DB) {
		if d.Statement.Table == "thread_likes" && d.Statement.Dest != nil {
			if _, ok := d.Statement.Dest.(*models.ThreadLike); ok {
				d.Statement.AddClause(clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "1 = 0"}}})
			}
		}
	})
	require.NoError(t, err)

	res, err := f.likes.Toggle(ctx, thread.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, LikeCount: 1}, res)
	assert.Equal(t, int64(1), f.count(t, &models.ThreadLike{}, ""))
	assert.Equal(t, 1, f.reload(t, thread).LikeCount)
}

func TestToggle_ConcurrentCounterMatchesRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", models.RoleUser)
	thread := f.thread(t, owner, "popular")

	const users, togglesEach = 12, 5
	likers := make([]*models.User, users)
	for i := range likers {
		likers[i] = f.user(t, fmt.Sprintf("liker%02d", i), models.RoleUser)
	}

	var wg sync.WaitGroup
	errs := make(chan error, users*togglesEach)
	for _, u := range likers {
		for range togglesEach {
			wg.Add(1)
			go func(userID uint) {
				defer wg.Done()
				if _, err := f.likes.Toggle(ctx, thread.ID, userID); err != nil {
					errs <- err
				}
			}(u.ID)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// 每人奇数次切换，最终都处于已点赞状态
	rows := f.count(t, &models.ThreadLike{}, "thread_id = ?", thread.ID)
	assert.Equal(t, int64(users), rows)
	assert.Equal(t, int(rows), f.reload(t, thread).LikeCount)
}
