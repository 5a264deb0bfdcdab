package config

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"alfredoptarigan/resume-ingestor/internal/models"
)

func InitDatabase(cfg *Config, log arbor.ILogger) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()

	logLevel := logger.Silent
	if cfg.Server.Env == "development" {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Database connected")

	if err := db.AutoMigrate(&models.IngestionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Msg("Database migration completed")

	return db, nil
}
