package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "secret")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.Equal(t, "asynq", cfg.Queue.Backend)
	assert.Equal(t, 3, cfg.Queue.MaxRetry)
	assert.Equal(t, time.Hour, cfg.Storage.PresignExpiry)
	assert.Equal(t, 5*time.Second, cfg.Worker.ProcessDelay)
	assert.Equal(t, 0, cfg.LLM.HistoryWindow)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("QUEUE_BACKEND", "rabbitmq")
	t.Setenv("WORKER_PROCESS_DELAY", "250ms")
	t.Setenv("WORKER_EMBEDDED", "true")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LLM_HISTORY_WINDOW", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "rabbitmq", cfg.Queue.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Worker.ProcessDelay)
	assert.True(t, cfg.Worker.Embedded)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, 0, cfg.LLM.HistoryWindow)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  type: minio
  bucket_name: uploads
llm:
  provider: gemini
  model: gemini-2.0-flash
  history_window: 6
`), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "minio", cfg.Storage.Type)
	assert.Equal(t, "uploads", cfg.Storage.BucketName)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 6, cfg.LLM.HistoryWindow)
	// untouched sections keep defaults
	assert.Equal(t, "postgres", cfg.Database.Driver)
}

func TestLoadTOMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
driver = "mysql"
dsn = "root:@tcp(127.0.0.1:3306)/assistant?parseTime=true"

[worker]
concurrency = 2
`), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 2, cfg.Worker.Concurrency)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("STORAGE_TYPE=minio\n"), 0o600))
	t.Setenv("ENV_FILE", envPath)
	t.Cleanup(func() { os.Unsetenv("STORAGE_TYPE") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "minio", cfg.Storage.Type)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"driver", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"queue", func(c *Config) { c.Queue.Backend = "sqs" }},
		{"storage", func(c *Config) { c.Storage.Type = "gcs" }},
		{"llm", func(c *Config) { c.LLM.Provider = "local" }},
		{"secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"retry", func(c *Config) { c.Queue.MaxRetry = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.JWTSecret = "secret"
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsUnknownFileType(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}
