package services

import (
	"context"
	"fmt"

	"tourboard/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// batchSize 单条 IN 语句的最大 id 数，避免超过驱动的参数上限
const batchSize = 500

type NotificationService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewNotificationService(db *gorm.DB, log *zap.Logger) *NotificationService {
	return &NotificationService{db: db, log: log}
}

// NotifyOnComment 在评论事务内给帖子作者写一条未读通知。recipientID 为 nil 时不做任何事
func (s *NotificationService) NotifyOnComment(ctx context.Context, tx *gorm.DB, recipientID *uint, threadID, commentID uint, message string) error {
	if recipientID == nil {
		return nil
	}
	n := models.Notification{
		UserID:    *recipientID,
		ThreadID:  &threadID,
		CommentID: &commentID,
		Type:      models.NotificationTypeCommentThread,
		Message:   message,
	}
	if err := tx.WithContext(ctx).Create(&n).Error; err != nil {
		return wrapStoreErr("create notification", err)
	}
	s.log.Debug("notification created",
		zap.Uint("recipient_id", *recipientID),
		zap.Uint("thread_id", threadID),
		zap.Uint("comment_id", commentID))
	return nil
}

// ListForUser 最新的在前
func (s *NotificationService) ListForUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	var list []models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&list).Error
	if err != nil {
		return nil, wrapStoreErr("list notifications", err)
	}
	return list, nil
}

// MarkRead marks one notification of userID as read. Marking an already read
// notification succeeds; an id the user does not own is ErrNotFound.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	var n models.Notification
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&n).Error; err != nil {
		return wrapStoreErr(fmt.Sprintf("notification %d", id), err)
	}
	if n.IsRead {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		UpdateColumn("is_read", true).Error
	return wrapStoreErr("mark notification read", err)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumn("is_read", true)
	if res.Error != nil {
		return 0, wrapStoreErr("mark all read", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, wrapStoreErr("count unread", err)
	}
	return count, nil
}

// DeleteByIDs removes the listed notifications of userID in one statement.
// Unknown ids and ids owned by someone else are skipped silently.
func (s *NotificationService) DeleteByIDs(ctx context.Context, userID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&models.Notification{})
	if res.Error != nil {
		return 0, wrapStoreErr("delete notifications", res.Error)
	}
	s.log.Info("notifications deleted",
		zap.Uint("user_id", userID),
		zap.Int("requested", len(ids)),
		zap.Int64("deleted", res.RowsAffected))
	return res.RowsAffected, nil
}

func deleteNotificationsByComments(tx *gorm.DB, commentIDs []uint) (int64, error) {
	return deleteInBatches(tx, &models.Notification{}, "comment_id", commentIDs)
}

func deleteNotificationsByThreads(tx *gorm.DB, threadIDs []uint) (int64, error) {
	return deleteInBatches(tx, &models.Notification{}, "thread_id", threadIDs)
}

func deleteNotificationsByRecipient(tx *gorm.DB, userID uint) (int64, error) {
	res := tx.Where("user_id = ?", userID).Delete(&models.Notification{})
	return res.RowsAffected, res.Error
}

// deleteInBatches 按 column IN ids 分批删除，返回删除总行数
func deleteInBatches(tx *gorm.DB, model any, column string, ids []uint) (int64, error) {
	var total int64
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		res := tx.Where(column+" IN ?", ids[start:end]).Delete(model)
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
	}
	return total, nil
}
