package services

import (
	"context"
	"fmt"
	"strings"

	"tourboard/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ReportService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewReportService(db *gorm.DB, log *zap.Logger) *ReportService {
	return &ReportService{db: db, log: log}
}

// Create 举报用户，不能举报自己
func (s *ReportService) Create(ctx context.Context, reporterID, targetID uint, reason string) (*models.Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("report reason is empty: %w", ErrValidation)
	}
	if reporterID == targetID {
		return nil, fmt.Errorf("cannot report yourself: %w", ErrValidation)
	}

	report := models.Report{ReporterID: reporterID, TargetID: targetID, Reason: reason}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.User{}, reporterID); err != nil {
			return fmt.Errorf("reporter %d: %w", reporterID, err)
		}
		if err := mustExist(tx, &models.User{}, targetID); err != nil {
			return fmt.Errorf("target %d: %w", targetID, err)
		}
		return tx.Create(&report).Error
	})
	if err != nil {
		return nil, wrapStoreErr("create report", err)
	}
	s.log.Info("report filed",
		zap.Uint("report_id", report.ID),
		zap.Uint("reporter_id", reporterID),
		zap.Uint("target_id", targetID))
	return &report, nil
}

func (s *ReportService) List(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&reports).Error; err != nil {
		return nil, wrapStoreErr("list reports", err)
	}
	return reports, nil
}
