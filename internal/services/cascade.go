package services

import (
	"context"
	"fmt"
	"slices"

	"tourboard/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CascadeResult 记录一次级联删除各类实体的删除行数
type CascadeResult struct {
	Notifications int64 `json:"notifications"`
	Likes         int64 `json:"likes"`
	Comments      int64 `json:"comments"`
	Threads       int64 `json:"threads"`
	Reports       int64 `json:"reports"`
	Users         int64 `json:"users"`
}

// CascadeService removes a thread or a user together with every row that
// references it. Foreign keys carry no ON DELETE action, so dependents are
// removed here in child-before-parent order inside one transaction.
type CascadeService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCascadeService(db *gorm.DB, log *zap.Logger) *CascadeService {
	return &CascadeService{db: db, log: log}
}

func (s *CascadeService) DeleteThread(ctx context.Context, threadID uint) (CascadeResult, error) {
	var result CascadeResult
	log := s.log.With(zap.String("op", "delete_thread"), zap.Uint("thread_id", threadID))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Thread{}, threadID); err != nil {
			return fmt.Errorf("thread %d: %w", threadID, err)
		}

		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("thread_id = ?", threadID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}

		// 1. 通知
		n, err := deleteNotificationsByComments(tx, commentIDs)
		if err != nil {
			return err
		}
		m, err := deleteNotificationsByThreads(tx, []uint{threadID})
		if err != nil {
			return err
		}
		result.Notifications = n + m
		log.Info("cascade step", zap.Int("step", 1), zap.String("entity", "notifications"), zap.Int64("rows", result.Notifications))

		// 2. 点赞
		res := tx.Where("thread_id = ?", threadID).Delete(&models.ThreadLike{})
		if res.Error != nil {
			return res.Error
		}
		result.Likes = res.RowsAffected
		log.Info("cascade step", zap.Int("step", 2), zap.String("entity", "likes"), zap.Int64("rows", result.Likes))

		// 3. 评论
		rows, err := findCommentsInThreads(tx, []uint{threadID})
		if err != nil {
			return err
		}
		result.Comments, err = deleteCommentsBottomUp(tx, collectSubtree(rows, commentIDs))
		if err != nil {
			return err
		}
		log.Info("cascade step", zap.Int("step", 3), zap.String("entity", "comments"), zap.Int64("rows", result.Comments))

		// 4. 帖子
		res = tx.Delete(&models.Thread{}, threadID)
		if res.Error != nil {
			return res.Error
		}
		result.Threads = res.RowsAffected
		log.Info("cascade step", zap.Int("step", 4), zap.String("entity", "thread"), zap.Int64("rows", result.Threads))
		return nil
	})
	if err != nil {
		log.Warn("cascade rolled back", zap.Error(err))
		return CascadeResult{}, wrapStoreErr("delete thread", err)
	}
	return result, nil
}

// DeleteUser purges a non-admin account and everything it owns or that hangs
// off what it owns. Replies written by other users beneath the user's comments
// are removed too, since they would otherwise point at a deleted parent.
func (s *CascadeService) DeleteUser(ctx context.Context, userID uint) (CascadeResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, userID).Error; err != nil {
		return CascadeResult{}, wrapStoreErr(fmt.Sprintf("user %d", userID), err)
	}
	if user.IsAdmin() {
		return CascadeResult{}, fmt.Errorf("user %d is an administrator: %w", userID, ErrForbidden)
	}

	var result CascadeResult
	log := s.log.With(zap.String("op", "delete_user"), zap.Uint("user_id", userID))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 用户在事务开始前被并发删除
		if err := mustExist(tx, &models.User{}, userID); err != nil {
			return fmt.Errorf("user %d: %w", userID, err)
		}

		var ownThreads, ownComments, likedThreads, commentedThreads []uint
		if err := tx.Model(&models.Thread{}).Where("user_id = ?", userID).Pluck("id", &ownThreads).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("user_id = ?", userID).Pluck("id", &ownComments).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("user_id = ?", userID).Distinct().Pluck("thread_id", &commentedThreads).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ThreadLike{}).Where("user_id = ?", userID).Pluck("thread_id", &likedThreads).Error; err != nil {
			return err
		}

		rows, err := findCommentsInThreads(tx, union(ownThreads, commentedThreads))
		if err != nil {
			return err
		}
		owned := make(map[uint]bool, len(ownThreads))
		for _, id := range ownThreads {
			owned[id] = true
		}
		var underOwnThreads []uint
		for _, c := range rows {
			if owned[c.ThreadID] {
				underOwnThreads = append(underOwnThreads, c.ID)
			}
		}
		authoredSubtree := collectSubtree(rows, ownComments)

		// 1. 用户评论及其回复上的通知
		n, err := deleteNotificationsByComments(tx, authoredSubtree)
		if err != nil {
			return err
		}
		result.Notifications += n
		log.Info("cascade step", zap.Int("step", 1), zap.String("entity", "notifications on authored comments"), zap.Int64("rows", n))

		// 2. 用户帖子及其下评论上的通知
		n, err = deleteNotificationsByThreads(tx, ownThreads)
		if err != nil {
			return err
		}
		m, err := deleteNotificationsByComments(tx, underOwnThreads)
		if err != nil {
			return err
		}
		result.Notifications += n + m
		log.Info("cascade step", zap.Int("step", 2), zap.String("entity", "notifications on owned threads"), zap.Int64("rows", n+m))

		// 3. 发给用户的通知
		n, err = deleteNotificationsByRecipient(tx, userID)
		if err != nil {
			return err
		}
		result.Notifications += n
		log.Info("cascade step", zap.Int("step", 3), zap.String("entity", "notifications received"), zap.Int64("rows", n))

		// 4. 点赞
		res := tx.Where("user_id = ?", userID).Delete(&models.ThreadLike{})
		if res.Error != nil {
			return res.Error
		}
		n, err = deleteInBatches(tx, &models.ThreadLike{}, "thread_id", ownThreads)
		if err != nil {
			return err
		}
		result.Likes = res.RowsAffected + n
		log.Info("cascade step", zap.Int("step", 4), zap.String("entity", "likes"), zap.Int64("rows", result.Likes))

		// 5. 评论
		doomed := collectSubtree(rows, union(ownComments, underOwnThreads))
		result.Comments, err = deleteCommentsBottomUp(tx, doomed)
		if err != nil {
			return err
		}
		log.Info("cascade step", zap.Int("step", 5), zap.String("entity", "comments"), zap.Int64("rows", result.Comments))

		surviving := slices.DeleteFunc(union(commentedThreads, likedThreads), func(id uint) bool { return owned[id] })
		if err := recomputeThreadCounters(tx, surviving); err != nil {
			return err
		}
		log.Debug("thread counters recomputed", zap.Int("threads", len(surviving)))

		// 6. 帖子
		result.Threads, err = deleteInBatches(tx, &models.Thread{}, "id", ownThreads)
		if err != nil {
			return err
		}
		log.Info("cascade step", zap.Int("step", 6), zap.String("entity", "threads"), zap.Int64("rows", result.Threads))

		// 7. 举报
		res = tx.Where("reporter_id = ? OR target_id = ?", userID, userID).Delete(&models.Report{})
		if res.Error != nil {
			return res.Error
		}
		result.Reports = res.RowsAffected
		log.Info("cascade step", zap.Int("step", 7), zap.String("entity", "reports"), zap.Int64("rows", result.Reports))

		// 8. 用户
		res = tx.Delete(&models.User{}, userID)
		if res.Error != nil {
			return res.Error
		}
		result.Users = res.RowsAffected
		log.Info("cascade step", zap.Int("step", 8), zap.String("entity", "user"), zap.Int64("rows", result.Users))
		return nil
	})
	if err != nil {
		log.Warn("cascade rolled back", zap.Error(err))
		return CascadeResult{}, wrapStoreErr("delete user", err)
	}
	return result, nil
}

// findCommentsInThreads loads the id/parent/thread columns of every comment
// under the given threads.
func findCommentsInThreads(tx *gorm.DB, threadIDs []uint) ([]models.Comment, error) {
	var rows []models.Comment
	for start := 0; start < len(threadIDs); start += batchSize {
		end := min(start+batchSize, len(threadIDs))
		var chunk []models.Comment
		err := tx.Select("id", "thread_id", "parent_id", "user_id").
			Where("thread_id IN ?", threadIDs[start:end]).
			Find(&chunk).Error
		if err != nil {
			return nil, err
		}
		rows = append(rows, chunk...)
	}
	return rows, nil
}

// deleteCommentsBottomUp deletes comments given in pre-order (every parent
// before its replies). Deleting in reverse keeps each batch free of rows
// still referenced by a later one.
func deleteCommentsBottomUp(tx *gorm.DB, preorder []uint) (int64, error) {
	ids := slices.Clone(preorder)
	slices.Reverse(ids)
	return deleteInBatches(tx, &models.Comment{}, "id", ids)
}

// recomputeThreadCounters 从实际行数重新计算 like_count 和 comment_count
func recomputeThreadCounters(tx *gorm.DB, threadIDs []uint) error {
	for start := 0; start < len(threadIDs); start += batchSize {
		end := min(start+batchSize, len(threadIDs))
		err := tx.Model(&models.Thread{}).
			Where("id IN ?", threadIDs[start:end]).
			UpdateColumns(map[string]any{
				"like_count":    gorm.Expr("(SELECT COUNT(*) FROM thread_likes WHERE thread_likes.thread_id = threads.id)"),
				"comment_count": gorm.Expr("(SELECT COUNT(*) FROM comments WHERE comments.thread_id = threads.id)"),
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func union(a, b []uint) []uint {
	out := make([]uint, 0, len(a)+len(b))
	seen := make(map[uint]bool, len(a)+len(b))
	for _, list := range [][]uint{a, b} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
