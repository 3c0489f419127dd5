package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Server
	Port string

	// Store
	StoreDriver string // "memory" or "postgres"
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Retention
	RetentionHours    int // rolling window, also the passive expiry
	SweepIntervalSecs int // how often the background sweep runs
}

func Load() *Config {
	retentionHours, _ := strconv.Atoi(getEnv("RETENTION_HOURS", "24"))
	sweepSecs, _ := strconv.Atoi(getEnv("SWEEP_INTERVAL_SECONDS", "600"))
	return &Config{
		Port:              getEnv("PORT", "8080"),
		StoreDriver:       getEnv("STORE_DRIVER", "memory"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "pulsewatch"),
		DBSSLMode:         getEnv("DB_SSLMODE", "disable"),
		RetentionHours:    retentionHours,
		SweepIntervalSecs: sweepSecs,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
