package models

import (
	"time"

	"gorm.io/datatypes"
)

// Thread 帖子。LikeCount / CommentCount 为冗余计数，由服务层在事务内维护
type Thread struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	UserID       uint                        `gorm:"not null;index" json:"user_id"`
	User         User                        `gorm:"constraint:OnUpdate:CASCADE;" json:"-"`
	Title        string                      `gorm:"not null" json:"title"`
	Content      string                      `gorm:"type:text" json:"content"`
	Author       string                      `gorm:"size:50;not null" json:"author"` // username snapshot
	Area         string                      `gorm:"size:50" json:"area"`
	ViewCount    int                         `gorm:"default:0;not null" json:"view_count"`
	LikeCount    int                         `gorm:"default:0;not null" json:"like_count"`
	CommentCount int                         `gorm:"default:0;not null" json:"comment_count"`
	FilePaths    datatypes.JSONSlice[string] `json:"file_paths"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}
