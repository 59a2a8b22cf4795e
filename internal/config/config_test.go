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
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "")

	cfg, err := Load(New(), "")
	require.NoError(t, err, "missing default config file is not an error")

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverLocal, cfg.Storage.Driver)
	assert.Equal(t, "./storage", cfg.Storage.Root)
	assert.Equal(t, int64(32<<20), cfg.Upload.MaxBytes)
	assert.Empty(t, cfg.Journal.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "depot.yaml")
	content := `
server:
  port: 8081
  write_timeout: 2m
storage:
  root: /srv/uploads
upload:
  max_bytes: 1024
journal:
  path: /var/lib/filedepot/journal.sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "/srv/uploads", cfg.Storage.Root)
	assert.Equal(t, int64(1024), cfg.Upload.MaxBytes)
	assert.Equal(t, "/var/lib/filedepot/journal.sqlite", cfg.Journal.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "4000")
	t.Setenv("FILEDEPOT_STORAGE_ROOT", "/data")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "/data", cfg.Storage.Root)

	t.Setenv("FILEDEPOT_SERVER_PORT", "5000")

	cfg, err = Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port, "prefixed variable wins over PORT")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			Server:  ServerConfig{Port: 3000},
			Storage: StorageConfig{Driver: DriverLocal, Root: "./storage"},
			Upload:  UploadConfig{MaxBytes: 1},
		}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }},
		{name: "no upload limit", mutate: func(c *Config) { c.Upload.MaxBytes = 0 }},
		{name: "empty root", mutate: func(c *Config) { c.Storage.Root = "" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "ftp" }},
		{name: "minio without bucket", mutate: func(c *Config) {
			c.Storage.Driver = DriverMinio
			c.Storage.Minio.Endpoint = "localhost:9000"
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
