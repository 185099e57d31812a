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
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost:8084", cfg.Address())
	assert.Equal(t, "df_idpos_per_store_day.csv", cfg.Data.TransactionsFile)
	assert.Equal(t, "df_demo_occupied.csv", cfg.Data.PlanogramFile)
	assert.Equal(t, 30*time.Second, cfg.Server.LoadTimeout)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  port: 9000
  read_timeout: 5s
data:
  transactions_file: /data/pos.csv
  planogram_file: /data/planogram.csv
logger:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("DATA_PLANOGRAM_FILE", "/override/planogram.csv")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "/data/pos.csv", cfg.Data.TransactionsFile)
	assert.Equal(t, "/override/planogram.csv", cfg.Data.PlanogramFile)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_PORT=9100\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SERVER_PORT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port out of range", map[string]string{"SERVER_PORT": "70000"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"zero rps", map[string]string{"SECURITY_RATE_LIMIT_RPS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}
