package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tourboard/internal/models"
	"tourboard/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateCommentInput struct {
	ThreadID uint
	AuthorID uint
	Content  string
	ParentID *uint
}

type CommentService struct {
	db            *gorm.DB
	log           *zap.Logger
	notifications *NotificationService
}

func NewCommentService(db *gorm.DB, log *zap.Logger, notifications *NotificationService) *CommentService {
	return &CommentService{db: db, log: log, notifications: notifications}
}

// Create 发表评论或回复，并通知帖子作者
func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("comment content is empty: %w", ErrValidation)
	}

	var comment models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thread models.Thread
		if err := tx.Select("id", "user_id").Take(&thread, in.ThreadID).Error; err != nil {
			return wrapStoreErr(fmt.Sprintf("thread %d", in.ThreadID), err)
		}
		var author models.User
		if err := tx.Take(&author, in.AuthorID).Error; err != nil {
			return wrapStoreErr(fmt.Sprintf("user %d", in.AuthorID), err)
		}
		if in.ParentID != nil {
			var parent models.Comment
			if err := tx.Select("id", "thread_id").Take(&parent, *in.ParentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("parent comment %d does not exist: %w", *in.ParentID, ErrValidation)
				}
				return err
			}
			if parent.ThreadID != in.ThreadID {
				return fmt.Errorf("parent comment %d belongs to thread %d: %w", parent.ID, parent.ThreadID, ErrValidation)
			}
		}

		comment = models.Comment{
			ThreadID: in.ThreadID,
			UserID:   in.AuthorID,
			ParentID: in.ParentID,
			Content:  content,
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		if err := recomputeThreadCounters(tx, []uint{in.ThreadID}); err != nil {
			return err
		}

		message := fmt.Sprintf("%s commented on your thread", displayName(&author))
		return s.notifications.NotifyOnComment(ctx, tx, &thread.UserID, thread.ID, comment.ID, message)
	})
	if err != nil {
		return nil, wrapStoreErr("create comment", err)
	}

	s.log.Info("comment created",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("thread_id", comment.ThreadID),
		zap.Uint("user_id", comment.UserID))
	return &comment, nil
}

// Tree 返回帖子的评论树，内容渲染为安全的 HTML
func (s *CommentService) Tree(ctx context.Context, threadID uint) ([]*CommentNode, error) {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.Thread{}, threadID); err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("thread %d", threadID), err)
	}

	var rows []models.Comment
	if err := db.Where("thread_id = ?", threadID).Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, wrapStoreErr("load comments", err)
	}

	roots, err := BuildCommentTree(rows)
	if err != nil {
		s.log.Error("comment tree is inconsistent", zap.Uint("thread_id", threadID), zap.Error(err))
		return nil, err
	}

	stack := append([]*CommentNode(nil), roots...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node.ContentHTML = utils.RenderMarkdown(node.Content)
		stack = append(stack, node.Children...)
	}
	return roots, nil
}

func (s *CommentService) Update(ctx context.Context, commentID, authorID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment content is empty: %w", ErrValidation)
	}

	db := s.db.WithContext(ctx)
	var comment models.Comment
	if err := db.Take(&comment, commentID).Error; err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("comment %d", commentID), err)
	}
	if comment.UserID != authorID {
		return nil, fmt.Errorf("comment %d is not owned by user %d: %w", commentID, authorID, ErrForbidden)
	}

	comment.Content = content
	if err := db.Model(&comment).Update("content", content).Error; err != nil {
		return nil, wrapStoreErr("update comment", err)
	}
	return &comment, nil
}

// Delete removes the comment, every reply beneath it and their notifications.
// It returns the number of comments removed.
func (s *CommentService) Delete(ctx context.Context, commentID, authorID uint) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Take(&comment, commentID).Error; err != nil {
			return wrapStoreErr(fmt.Sprintf("comment %d", commentID), err)
		}
		if comment.UserID != authorID {
			return fmt.Errorf("comment %d is not owned by user %d: %w", commentID, authorID, ErrForbidden)
		}

		rows, err := findCommentsInThreads(tx, []uint{comment.ThreadID})
		if err != nil {
			return err
		}
		subtree := collectSubtree(rows, []uint{comment.ID})

		if _, err := deleteNotificationsByComments(tx, subtree); err != nil {
			return err
		}
		if removed, err = deleteCommentsBottomUp(tx, subtree); err != nil {
			return err
		}
		return recomputeThreadCounters(tx, []uint{comment.ThreadID})
	})
	if err != nil {
		return 0, wrapStoreErr("delete comment", err)
	}

	s.log.Info("comment deleted", zap.Uint("comment_id", commentID), zap.Int64("removed", removed))
	return removed, nil
}

func displayName(u *models.User) string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}
