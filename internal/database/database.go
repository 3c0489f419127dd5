package database

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pulsewatch/internal/config"
	"pulsewatch/internal/models"
)

// Connect opens the Postgres connection used by the persistent store backend.
// The handle is returned to the caller and injected where needed; there is no
// package-level connection.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("Database connected", "host", cfg.DBHost, "db", cfg.DBName)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Sample{})
}
