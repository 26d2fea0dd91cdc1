package database

import (
	"fmt"

	"github.com/plotdesk/plotdesk/internal/common/config"
)

// NewStore creates a new store based on configuration
func NewStore(cfg *config.DatabaseConfig) (Store, error) {
	switch cfg.Type {
	case "postgres":
		return NewPostgres(cfg)
	case "sqlite":
		return NewSQLite(cfg)
	case "mysql":
		return NewMySQL(cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
