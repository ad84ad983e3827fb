package services

import (
	"context"
	"testing"
	"time"

	"tourboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyOnComment_NilRecipientIsNoop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.notifications.NotifyOnComment(context.Background(), f.db, nil, 1, 1, "ignored"))
	assert.Zero(t, f.count(t, &models.Notification{}, ""))
}

func TestListForUser_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", models.RoleUser)
	bob := f.user(t, "bob", models.RoleUser)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, msg := range []string{"old", "newest", "middle"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		n := models.Notification{UserID: alice.ID, Type: models.NotificationTypeSystem, Message: msg, CreatedAt: base.Add(offsets[i])}
		require.NoError(t, f.db.Create(&n).Error)
	}
	require.NoError(t, f.db.Create(&models.Notification{UserID: bob.ID, Type: models.NotificationTypeSystem, Message: "other"}).Error)

	list, err := f.notifications.ListForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"newest", "middle", "old"}, []string{list[0].Message, list[1].Message, list[2].Message})

	empty, err := f.notifications.ListForUser(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", models.RoleUser)
	bob := f.user(t, "bob", models.RoleUser)
	n := models.Notification{UserID: alice.ID, Type: models.NotificationTypeSystem, Message: "hi"}
	require.NoError(t, f.db.Create(&n).Error)

	require.NoError(t, f.notifications.MarkRead(ctx, alice.ID, n.ID))
	// 重复标记不报错
	require.NoError(t, f.notifications.MarkRead(ctx, alice.ID, n.ID))

	unread, err := f.notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	assert.ErrorIs(t, f.notifications.MarkRead(ctx, alice.ID, 999), ErrNotFound)
	assert.ErrorIs(t, f.notifications.MarkRead(ctx, bob.ID, n.ID), ErrNotFound)
}

func TestMarkAllReadAndUnreadCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", models.RoleUser)
	for range 3 {
		require.NoError(t, f.db.Create(&models.Notification{UserID: alice.ID, Type: models.NotificationTypeSystem}).Error)
	}

	unread, err := f.notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	marked, err := f.notifications.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)

	unread, err = f.notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestDeleteByIDs_ScopedToRecipient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", models.RoleUser)
	bob := f.user(t, "bob", models.RoleUser)

	var ids []uint
	for range 3 {
		n := models.Notification{UserID: alice.ID, Type: models.NotificationTypeSystem}
		require.NoError(t, f.db.Create(&n).Error)
		ids = append(ids, n.ID)
	}
	foreign := models.Notification{UserID: bob.ID, Type: models.NotificationTypeSystem}
	require.NoError(t, f.db.Create(&foreign).Error)

	removed, err := f.notifications.DeleteByIDs(ctx, alice.ID, []uint{ids[0], ids[2], 999, foreign.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, int64(1), f.count(t, &models.Notification{}, "user_id = ?", alice.ID))
	assert.Equal(t, int64(1), f.count(t, &models.Notification{}, "id = ?", foreign.ID))

	removed, err = f.notifications.DeleteByIDs(ctx, alice.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestDeleteInBatches(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", models.RoleUser)
	var ids []uint
	for range batchSize + 3 {
		n := models.Notification{UserID: alice.ID, Type: models.NotificationTypeSystem}
		require.NoError(t, f.db.Create(&n).Error)
		ids = append(ids, n.ID)
	}

	removed, err := deleteInBatches(f.db, &models.Notification{}, "id", ids)
	require.NoError(t, err)
	assert.Equal(t, int64(batchSize+3), removed)
}
