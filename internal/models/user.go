package models

import (
	"time"
)

type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"` // Hash
	Nickname  string    `gorm:"size:50" json:"nickname"`
	Email     string    `gorm:"size:120" json:"email"`
	Role      Role      `gorm:"size:20;default:'user';not null" json:"role"` // guest, user, admin
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// No DeletedAt, users are removed by the cascade only
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
