package db

import (
	"fmt"
	"os"
	"strings"
	"tourboard/internal/config"
	"tourboard/internal/models"
	"tourboard/internal/utils"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the configured store. TranslateError is required: the like
// toggle and registration rely on gorm.ErrDuplicatedKey.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(withForeignKeys(cfg.DSN))
	default:
		dialector = postgres.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	return db, nil
}

// withForeignKeys 让每个 sqlite 连接都开启外键检查
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// Migrate creates or updates every table of the entity store.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Thread{},
		&models.Comment{},
		&models.ThreadLike{},
		&models.Notification{},
		&models.Report{},
	)
}

// Init opens the database, runs migrations and seeds the admin account.
func Init(cfg config.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("database connection established", zap.String("driver", cfg.Driver))

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("database migration completed")

	if err := seedAdmin(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func seedAdmin(db *gorm.DB, log *zap.Logger) error {
	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Debug("admin already seeded, skipping", zap.String("username", username))
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := models.User{Username: username, Password: hash, Nickname: username, Role: models.RoleAdmin}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Info("admin account created", zap.String("username", username))
	return nil
}
