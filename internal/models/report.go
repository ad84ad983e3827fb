package models

import (
	"time"
)

type Report struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReporterID uint      `gorm:"not null;index" json:"reporter_id"`
	Reporter   User      `gorm:"foreignKey:ReporterID;constraint:OnUpdate:CASCADE;" json:"-"`
	TargetID   uint      `gorm:"not null;index" json:"target_id"`
	Target     User      `gorm:"foreignKey:TargetID;constraint:OnUpdate:CASCADE;" json:"-"`
	Reason     string    `gorm:"size:255;not null" json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
