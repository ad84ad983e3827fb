package models

import (
	"time"
)

// ThreadLike 点赞记录，(user_id, thread_id) 唯一
type ThreadLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_like_user_thread" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE;" json:"-"`
	ThreadID  uint      `gorm:"not null;index;uniqueIndex:idx_like_user_thread" json:"thread_id"`
	Thread    Thread    `gorm:"constraint:OnUpdate:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
