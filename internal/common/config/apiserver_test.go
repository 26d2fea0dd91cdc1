package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_GetDSN_Postgres(t *testing.T) {
	c := &DatabaseConfig{Type: "postgres", Host: "h", Port: 5432, User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", c.GetDSN())
}

func TestDatabaseConfig_GetDSN_MySQL(t *testing.T) {
	c := &DatabaseConfig{Type: "mysql", Host: "h", Port: 3306, User: "u", Password: "p", DBName: "d"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=True&loc=Local", c.GetDSN())
}

func TestDatabaseConfig_GetDSN_SQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "crm.db")
	c := &DatabaseConfig{Type: "sqlite", DBName: dbPath}
	assert.Equal(t, dbPath, c.GetDSN())
	_, err := os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, err)
}

func TestDatabaseConfig_GetDSN_Unknown(t *testing.T) {
	c := &DatabaseConfig{Type: "unknown"}
	assert.Equal(t, "", c.GetDSN())
}

func TestLoadConfig_ResolvesEnv(t *testing.T) {
	t.Setenv("PD_TEST_SECRET", "a-secret-key-that-is-long-enough!!")

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "apiserver.yaml")
	body := []byte("port: ${PD_TEST_PORT:8080}\njwt:\n  secret_key: ${PD_TEST_SECRET}\n  duration: 24h\n")
	assert.NoError(t, os.WriteFile(cfgPath, body, 0644))

	cfg, path, err := LoadConfig[APIServerConfig](cfgPath)
	assert.NoError(t, err)
	assert.Equal(t, cfgPath, path)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "a-secret-key-that-is-long-enough!!", cfg.JWT.SecretKey)
}
