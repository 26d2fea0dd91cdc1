package database

import (
	"fmt"

	"github.com/plotdesk/plotdesk/internal/common/config"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// NewSQLite creates a Store backed by SQLite
func NewSQLite(cfg *config.DatabaseConfig) (Store, error) {
	gormDB, err := gorm.Open(sqlite.Open(cfg.GetDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newGormStore(gormDB)
}
