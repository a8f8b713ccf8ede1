package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("FLEET_SERVICE_URL", "http://fleet.local/")
	t.Setenv("FLEET_TIMEOUT_MS", "")
	t.Setenv("POLICY_RECONCILE_CRON", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "http://fleet.local", cfg.Fleet.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Fleet.Timeout)
	assert.Empty(t, cfg.Scheduler.PolicyReconcileCron)
	assert.Equal(t, "*", cfg.GetAllowedOrigins())
}

func TestLoad_ModePrefix(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("PROD_JWT_SECRET", "prod-secret")
	t.Setenv("DEV_JWT_SECRET", "dev-secret")
	t.Setenv("PROD_DB_NAME", "claims_prod")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "prod-secret", cfg.JWT.Secret)
	assert.Equal(t, "claims_prod", cfg.Database.DBName)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad mode", map[string]string{"APP_MODE": "staging"}},
		{"bad driver", map[string]string{"APP_MODE": "dev", "DB_DRIVER": "postgres"}},
		{"prod default secret", map[string]string{"APP_MODE": "prod", "DB_DRIVER": "memory", "PROD_JWT_SECRET": ""}},
		{"negative fleet timeout", map[string]string{"APP_MODE": "dev", "DB_DRIVER": "memory", "FLEET_TIMEOUT_MS": "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(DatabaseConfig{User: "u", Password: "p", Host: "db", Port: "3306", DBName: "claims"})
	assert.Equal(t, "u:p@tcp(db:3306)/claims?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}
