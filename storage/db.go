// Package storage opens the shared relational database from environment
// configuration. Every resource package migrates and queries its own tables
// through a connection obtained here.
package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// OpenFromEnv connects using DATABASE_DSN and DATABASE_DRIVER. When the
// driver is unset it is inferred from the DSN scheme.
func OpenFromEnv() (*gorm.DB, error) {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if dsn == "" {
		return nil, errors.New("storage: DATABASE_DSN environment variable is required")
	}

	driver := strings.TrimSpace(os.Getenv("DATABASE_DRIVER"))
	if driver == "" {
		driver = InferDriver(dsn)
		if driver == "" {
			return nil, errors.New("storage: DATABASE_DRIVER environment variable is required when DSN does not contain a scheme")
		}
	}

	return Open(driver, dsn)
}

// Open initializes a gorm instance for the given driver. Timestamps are
// generated in UTC so rows sort consistently across engines.
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{NowFunc: func() time.Time { return time.Now().UTC() }}

	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pg":
		return gorm.Open(postgres.Open(dsn), cfg)
	case "mysql":
		return gorm.Open(mysql.Open(dsn), cfg)
	case "sqlite", "sqlite3":
		return gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("storage: unsupported database driver %q", driver)
	}
}

// InferDriver guesses the driver identifier from a DSN string.
func InferDriver(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "mysql://"), strings.Contains(lower, "@tcp("):
		return "mysql"
	case strings.HasPrefix(lower, "sqlite://"), strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.Contains(lower, "mode=memory"):
		return "sqlite"
	default:
		return ""
	}
}
