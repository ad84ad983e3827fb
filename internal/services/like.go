package services

import (
	"context"
	"errors"
	"fmt"

	"tourboard/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

type LikeService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewLikeService(db *gorm.DB, log *zap.Logger) *LikeService {
	return &LikeService{db: db, log: log}
}

// Toggle 点赞/取消点赞。点赞记录与 like_count 在同一事务内变更
func (s *LikeService) Toggle(ctx context.Context, threadID, userID uint) (LikeResult, error) {
	var result LikeResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Thread{}, threadID); err != nil {
			return fmt.Errorf("thread %d: %w", threadID, err)
		}
		if err := mustExist(tx, &models.User{}, userID); err != nil {
			return fmt.Errorf("user %d: %w", userID, err)
		}

		var existing models.ThreadLike
		err := tx.Where("user_id = ? AND thread_id = ?", userID, threadID).Take(&existing).Error
		switch {
		case err == nil:
			res := tx.Delete(&models.ThreadLike{}, existing.ID)
			if res.Error != nil {
				return res.Error
			}
			result.Liked = false
			// 并发的另一次取消已经删掉了这条记录，计数也已经减过
			if res.RowsAffected == 0 {
				break
			}
			if err := bumpLikeCount(tx, threadID, -1); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.ThreadLike{UserID: userID, ThreadID: threadID}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			result.Liked = true
			if err := bumpLikeCount(tx, threadID, 1); err != nil {
				return err
			}
		default:
			return err
		}

		count, err := readLikeCount(tx, threadID)
		if err != nil {
			return err
		}
		result.LikeCount = count
		return nil
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// 并发点赞撞上唯一索引：对方已经点过，按已点赞返回当前状态
		count, rerr := readLikeCount(s.db.WithContext(ctx), threadID)
		if rerr != nil {
			return LikeResult{}, wrapStoreErr("reload like count", rerr)
		}
		s.log.Debug("like toggle resolved duplicate insert",
			zap.Uint("thread_id", threadID), zap.Uint("user_id", userID))
		return LikeResult{Liked: true, LikeCount: count}, nil
	}
	if err != nil {
		return LikeResult{}, wrapStoreErr("toggle like", err)
	}

	s.log.Info("like toggled",
		zap.Uint("thread_id", threadID),
		zap.Uint("user_id", userID),
		zap.Bool("liked", result.Liked),
		zap.Int("like_count", result.LikeCount))
	return result, nil
}

func (s *LikeService) HasLiked(ctx context.Context, threadID, userID uint) (bool, error) {
	return hasLiked(s.db.WithContext(ctx), threadID, userID)
}

func hasLiked(db *gorm.DB, threadID, userID uint) (bool, error) {
	var count int64
	err := db.Model(&models.ThreadLike{}).
		Where("user_id = ? AND thread_id = ?", userID, threadID).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreErr("check like", err)
	}
	return count > 0, nil
}

func bumpLikeCount(tx *gorm.DB, threadID uint, delta int) error {
	return tx.Model(&models.Thread{}).
		Where("id = ?", threadID).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
}

func readLikeCount(db *gorm.DB, threadID uint) (int, error) {
	var thread models.Thread
	if err := db.Select("id", "like_count").Take(&thread, threadID).Error; err != nil {
		return 0, err
	}
	return thread.LikeCount, nil
}

// mustExist 返回 ErrNotFound 如果主键为 id 的行不存在
func mustExist(tx *gorm.DB, model any, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
