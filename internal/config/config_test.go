package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost/users")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, BackendRedis, cfg.SessionBackend)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.CookieSecure)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("PORT", "9090")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_BACKEND=mongo\nMONGO_URI=mongodb://localhost:27017\nSESSION_SECRET=from-file\n"), 0o600))

	// the environment wins over the file
	t.Setenv("SESSION_SECRET", "from-env")
	// registered so t.Setenv puts the previous values back
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("MONGO_URI", "")
	require.NoError(t, os.Unsetenv("STORE_BACKEND"))
	require.NoError(t, os.Unsetenv("MONGO_URI"))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "from-env", cfg.SessionSecret)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreBackend:   BackendMemory,
			SessionBackend: BackendMemory,
			SessionSecret:  "s3cret",
			SessionTTL:     time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "postgres without dsn", mutate: func(c *Config) { c.StoreBackend = BackendPostgres }, wantErr: "POSTGRES_DSN"},
		{name: "mongo without uri", mutate: func(c *Config) { c.StoreBackend = BackendMongo }, wantErr: "MONGO_URI"},
		{name: "unknown store", mutate: func(c *Config) { c.StoreBackend = "sqlite" }, wantErr: "STORE_BACKEND"},
		{name: "redis without addr", mutate: func(c *Config) { c.SessionBackend = BackendRedis }, wantErr: "REDIS_ADDR"},
		{name: "unknown sessions", mutate: func(c *Config) { c.SessionBackend = "memcached" }, wantErr: "SESSION_BACKEND"},
		{name: "missing secret", mutate: func(c *Config) { c.SessionSecret = "" }, wantErr: "SESSION_SECRET"},
		{name: "zero ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, wantErr: "SESSION_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
