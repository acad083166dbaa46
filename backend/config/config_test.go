package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("JWT_TTL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.ServerPort)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "task_manager", cfg.Mongo.DBName)
	assert.Equal(t, "tasks", cfg.Mongo.TasksCollection)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "*", cfg.CORSOrigin)
}

func TestLoadFromEnvFile(t *testing.T) {
	// godotenv never overrides variables that are already set
	for _, key := range []string{"JWT_SECRET", "STORE_DRIVER", "JWT_TTL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nSTORE_DRIVER=sqlite\nJWT_TTL=90m\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, 90*time.Minute, cfg.JWTTTL)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "unknown driver", env: map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "redis"}},
		{name: "bad ttl", env: map[string]string{"JWT_SECRET": "s", "JWT_TTL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORE_DRIVER", "")
			t.Setenv("JWT_TTL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}
