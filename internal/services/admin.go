package services

import (
	"context"

	"tourboard/internal/models"

	"gorm.io/gorm"
)

type Statistics struct {
	Users   int64 `json:"users"`
	Threads int64 `json:"threads"`
	Reports int64 `json:"reports"`
}

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) Statistics(ctx context.Context) (Statistics, error) {
	var stats Statistics
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&stats.Users).Error; err != nil {
		return Statistics{}, wrapStoreErr("count users", err)
	}
	if err := db.Model(&models.Thread{}).Count(&stats.Threads).Error; err != nil {
		return Statistics{}, wrapStoreErr("count threads", err)
	}
	if err := db.Model(&models.Report{}).Count(&stats.Reports).Error; err != nil {
		return Statistics{}, wrapStoreErr("count reports", err)
	}
	return stats, nil
}

// ListUsers 管理后台用户列表
func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, wrapStoreErr("list users", err)
	}
	return users, nil
}
