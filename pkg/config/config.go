package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"simplib/pkg/stats"
)

type Config struct {
	HTTPAddr string

	// StoreDriver is one of "csv", "sqlite" or "postgres".
	StoreDriver string
	DataDir     string
	SQLitePath  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	BackupEnabled  bool
	BackupDir      string
	BackupInterval time.Duration
	BackupKeep     int

	S3Bucket   string
	S3Region   string
	S3Endpoint string
	S3User     string
	S3Password string

	MonthlyMinLoans  int
	CategoryMinBooks int
	UnknownCategory  string
}

func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:        getEnv("HTTP_ADDR", ":8060"),
		StoreDriver:     getEnv("STORE_DRIVER", "csv"),
		DataDir:         getEnv("DATA_DIR", "data"),
		SQLitePath:      getEnv("SQLITE_PATH", "data/library.db"),
		DBHost:          getEnv("DB_HOST", "postgres"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "program"),
		DBPassword:      getEnv("DB_PASSWORD", "test"),
		DBName:          getEnv("DB_NAME", "library"),
		BackupDir:       getEnv("BACKUP_DIR", "backups"),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3User:          getEnv("S3_USER", ""),
		S3Password:      getEnv("S3_PASSWORD", ""),
		UnknownCategory: getEnv("UNKNOWN_CATEGORY", stats.UnknownCategory),
	}

	var err error
	if c.BackupEnabled, err = strconv.ParseBool(getEnv("BACKUP_ENABLED", "true")); err != nil {
		return nil, fmt.Errorf("BACKUP_ENABLED: %w", err)
	}
	if c.BackupInterval, err = time.ParseDuration(getEnv("BACKUP_INTERVAL", "10m")); err != nil {
		return nil, fmt.Errorf("BACKUP_INTERVAL: %w", err)
	}
	if c.BackupKeep, err = strconv.Atoi(getEnv("BACKUP_KEEP", "24")); err != nil {
		return nil, fmt.Errorf("BACKUP_KEEP: %w", err)
	}
	if c.MonthlyMinLoans, err = strconv.Atoi(getEnv("MONTHLY_MIN_LOANS", "25")); err != nil {
		return nil, fmt.Errorf("MONTHLY_MIN_LOANS: %w", err)
	}
	if c.CategoryMinBooks, err = strconv.Atoi(getEnv("CATEGORY_MIN_BOOKS", "10")); err != nil {
		return nil, fmt.Errorf("CATEGORY_MIN_BOOKS: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "csv", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.BackupInterval <= 0 {
		return fmt.Errorf("BACKUP_INTERVAL must be positive")
	}
	if c.BackupKeep < 1 {
		return fmt.Errorf("BACKUP_KEEP must be at least 1")
	}
	return nil
}

// PostgresDSN assembles the DSN the way the services always have.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
