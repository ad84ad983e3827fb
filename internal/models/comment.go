package models

import (
	"time"
)

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"not null;index" json:"thread_id"`
	Thread    Thread    `gorm:"constraint:OnUpdate:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE;" json:"-"`
	ParentID  *uint     `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Parent    *Comment  `gorm:"constraint:OnUpdate:CASCADE;" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
