package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "Template Marketplace", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "marketplace_db", cfg.Database.Name)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.CacheTTL)
	assert.False(t, cfg.Events.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_NAME", "Marketplace Staging")
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("CATALOG_CACHE_TTL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "Marketplace Staging", cfg.App.Name)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, 30*time.Second, cfg.Catalog.CacheTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Security.CORSAllowedOrigins)
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	cfg, err := Load()

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate_EventsRequireBrokers(t *testing.T) {
	cfg := &Config{
		App:      AppConfig{Name: "test"},
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Host: "localhost", Name: "db", User: "u"},
		Redis:    RedisConfig{Host: "localhost"},
		JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		Events:   EventsConfig{Enabled: true},
	}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host: "db", Port: "5433", User: "u", Password: "p", Name: "market", SSLMode: "disable",
		},
	}

	assert.Equal(t, "host=db port=5433 user=u password=p dbname=market sslmode=disable", cfg.GetDatabaseDSN())
}
