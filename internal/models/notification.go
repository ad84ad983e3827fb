package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeCommentThread NotificationType = "comment_thread"
	NotificationTypeSystem        NotificationType = "system"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_notification_user_created" json:"user_id"` // Receiver
	User      User             `gorm:"constraint:OnUpdate:CASCADE;" json:"-"`
	ThreadID  *uint            `gorm:"index" json:"thread_id"`
	Thread    *Thread          `gorm:"constraint:OnUpdate:CASCADE;" json:"-"`
	CommentID *uint            `gorm:"index" json:"comment_id"`
	Comment   *Comment         `gorm:"constraint:OnUpdate:CASCADE;" json:"-"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Message   string           `gorm:"type:text" json:"message"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time        `gorm:"index:idx_notification_user_created" json:"created_at"`
}
