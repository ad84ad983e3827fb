package services

import (
	"context"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"tourboard/internal/models"
	"tourboard/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const perPage = 20

type ThreadInput struct {
	Title     string
	Content   string
	Area      string
	FilePaths []string
}

// ThreadDetail 帖子详情，带渲染后的正文和当前用户的点赞状态
type ThreadDetail struct {
	models.Thread
	ContentHTML        template.HTML `json:"content_html"`
	LikedByCurrentUser bool          `json:"liked_by_current_user"`
}

type SearchQuery struct {
	Keyword string
	By      string // "author" 或默认的标题+正文
	Sort    string // "views", "likes", "hot" 或默认最新
	Page    int
}

type ThreadService struct {
	db      *gorm.DB
	log     *zap.Logger
	cascade *CascadeService
}

func NewThreadService(db *gorm.DB, log *zap.Logger, cascade *CascadeService) *ThreadService {
	return &ThreadService{db: db, log: log, cascade: cascade}
}

func (s *ThreadService) Create(ctx context.Context, userID uint, in ThreadInput) (*models.Thread, error) {
	if err := validateThreadInput(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Take(&user, userID).Error; err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("user %d", userID), err)
	}

	thread := models.Thread{
		UserID:    user.ID,
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		Author:    user.Username,
		Area:      in.Area,
		FilePaths: in.FilePaths,
	}
	if err := db.Create(&thread).Error; err != nil {
		return nil, wrapStoreErr("create thread", err)
	}
	s.log.Info("thread created", zap.Uint("thread_id", thread.ID), zap.Uint("user_id", user.ID))
	return &thread, nil
}

// Get 返回帖子详情并把浏览数加一。viewerID 为 nil 表示游客
func (s *ThreadService) Get(ctx context.Context, threadID uint, viewerID *uint) (*ThreadDetail, error) {
	var detail ThreadDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Thread{}).
			Where("id = ?", threadID).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("thread %d: %w", threadID, ErrNotFound)
		}
		if err := tx.Take(&detail.Thread, threadID).Error; err != nil {
			return err
		}
		if viewerID != nil {
			liked, err := hasLiked(tx, threadID, *viewerID)
			if err != nil {
				return err
			}
			detail.LikedByCurrentUser = liked
		}
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("get thread", err)
	}
	detail.ContentHTML = utils.RenderMarkdown(detail.Content)
	return &detail, nil
}

func (s *ThreadService) Update(ctx context.Context, threadID, userID uint, in ThreadInput) (*models.Thread, error) {
	if err := validateThreadInput(in); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	thread, err := s.owned(db, threadID, userID)
	if err != nil {
		return nil, err
	}

	thread.Title = strings.TrimSpace(in.Title)
	thread.Content = in.Content
	thread.Area = in.Area
	thread.FilePaths = in.FilePaths
	err = db.Model(thread).
		Select("title", "content", "area", "file_paths", "updated_at").
		Updates(thread).Error
	if err != nil {
		return nil, wrapStoreErr("update thread", err)
	}
	return thread, nil
}

// Delete 作者删除自己的帖子，依赖行由级联删除处理
func (s *ThreadService) Delete(ctx context.Context, threadID, userID uint) (CascadeResult, error) {
	if _, err := s.owned(s.db.WithContext(ctx), threadID, userID); err != nil {
		return CascadeResult{}, err
	}
	return s.cascade.DeleteThread(ctx, threadID)
}

// List 最新的在前，area 为空时不过滤
func (s *ThreadService) List(ctx context.Context, area string, page int) ([]models.Thread, int64, error) {
	if page < 1 {
		page = 1
	}
	query := s.db.WithContext(ctx).Model(&models.Thread{})
	if area != "" {
		query = query.Where("area = ?", area)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapStoreErr("count threads", err)
	}
	var threads []models.Thread
	err := query.Order("created_at DESC").Order("id DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&threads).Error
	if err != nil {
		return nil, 0, wrapStoreErr("list threads", err)
	}
	return threads, total, nil
}

// ListByUser 某个用户发的帖子，最新的在前
func (s *ThreadService) ListByUser(ctx context.Context, userID uint, page int) ([]models.Thread, error) {
	if page < 1 {
		page = 1
	}
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.User{}, userID); err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("user %d", userID), err)
	}

	var threads []models.Thread
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(perPage).Offset((page - 1) * perPage).
		Find(&threads).Error
	if err != nil {
		return nil, wrapStoreErr("list user threads", err)
	}
	return threads, nil
}

// LikedBy 用户点过赞的帖子，最近点赞的在前
func (s *ThreadService) LikedBy(ctx context.Context, userID uint) ([]models.Thread, error) {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.User{}, userID); err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("user %d", userID), err)
	}

	var threads []models.Thread
	err := db.Joins("JOIN thread_likes ON thread_likes.thread_id = threads.id").
		Where("thread_likes.user_id = ?", userID).
		Order("thread_likes.created_at DESC").Order("thread_likes.id DESC").
		Find(&threads).Error
	if err != nil {
		return nil, wrapStoreErr("list liked threads", err)
	}
	return threads, nil
}

// Search 按关键词搜索，每页 perPage 条。hot 排序只在当前页内按热度重排
func (s *ThreadService) Search(ctx context.Context, q SearchQuery) ([]models.Thread, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(q.Keyword))) + "%"
	query := s.db.WithContext(ctx).Model(&models.Thread{})
	if q.By == "author" {
		query = query.Where(`LOWER(author) LIKE ? ESCAPE '\'`, pattern)
	} else {
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	switch q.Sort {
	case "views":
		query = query.Order("view_count DESC")
	case "likes", "hot":
		query = query.Order("like_count DESC")
	}
	query = query.Order("created_at DESC").Order("id DESC")

	var threads []models.Thread
	err := query.Limit(perPage).Offset((page - 1) * perPage).Find(&threads).Error
	if err != nil {
		return nil, wrapStoreErr("search threads", err)
	}
	if q.Sort == "hot" {
		sortByHotness(threads, time.Now())
	}
	return threads, nil
}

// escapeLike 转义 LIKE 通配符，关键词按字面匹配
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

// sortByHotness 按热度降序，热度相同保持最新优先
func sortByHotness(threads []models.Thread, now time.Time) {
	scores := make(map[uint]float64, len(threads))
	for _, th := range threads {
		scores[th.ID] = utils.HotScore(th.CreatedAt, now, th.LikeCount, th.CommentCount, th.ViewCount)
	}
	sort.SliceStable(threads, func(i, j int) bool {
		return scores[threads[i].ID] > scores[threads[j].ID]
	})
}

func (s *ThreadService) owned(db *gorm.DB, threadID, userID uint) (*models.Thread, error) {
	var thread models.Thread
	if err := db.Take(&thread, threadID).Error; err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("thread %d", threadID), err)
	}
	if thread.UserID != userID {
		return nil, fmt.Errorf("thread %d is not owned by user %d: %w", threadID, userID, ErrForbidden)
	}
	return &thread, nil
}

func validateThreadInput(in ThreadInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return fmt.Errorf("title is empty: %w", ErrValidation)
	}
	if len([]rune(title)) > 200 {
		return fmt.Errorf("title is longer than 200 characters: %w", ErrValidation)
	}
	return nil
}
