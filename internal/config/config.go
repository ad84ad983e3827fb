package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type DBConfig struct {
	Driver string // postgres, sqlite
	DSN    string
}

type AppConfig struct {
	Port          string
	GinMode       string
	LogLevel      string
	SessionSecret string
	DB            DBConfig
}

// Load reads .env (if present) and then the process environment.
func Load() (AppConfig, error) {
	// .env is optional, system env vars win anyway
	_ = godotenv.Load()

	cfg := AppConfig{
		Port:          env("PORT", "8080"),
		GinMode:       env("GIN_MODE", "release"),
		LogLevel:      env("LOG_LEVEL", "info"),
		SessionSecret: env("SESSION_SECRET", ""),
		DB: DBConfig{
			Driver: strings.ToLower(env("DB_DRIVER", "postgres")),
			DSN:    env("DATABASE_URL", ""),
		},
	}

	if cfg.DB.DSN == "" {
		switch cfg.DB.Driver {
		case "sqlite":
			cfg.DB.DSN = "tourboard.db"
		default:
			// Fallback for local dev if not set
			cfg.DB.DSN = "host=localhost user=postgres password=postgres dbname=tourboard port=5432 sslmode=disable TimeZone=Asia/Seoul"
		}
	}
	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "sqlite" {
		return AppConfig{}, errors.New("DB_DRIVER must be postgres or sqlite")
	}
	if cfg.SessionSecret == "" {
		if cfg.GinMode == "release" {
			return AppConfig{}, errors.New("SESSION_SECRET is required in release mode")
		}
		cfg.SessionSecret = "secret_key_change_me"
	}
	return cfg, nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
