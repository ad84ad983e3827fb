package main

import (
	"log"
	"tourboard/internal/config"
	"tourboard/internal/db"
	"tourboard/internal/logging"
	"tourboard/internal/router"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.GinMode)

	// Initialize Database
	gdb, err := db.Init(cfg.DB, logger)
	if err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}

	r := router.New(gdb, logger, cfg.SessionSecret)

	logger.Info("tourboard server starting", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
