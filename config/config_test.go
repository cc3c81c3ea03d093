package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv(envMap(nil))

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "teapos.db", cfg.DatabasePath)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.CORSOrigins)
	assert.False(t, cfg.SeedDemo)
	assert.Equal(t, DefaultStaticDir, cfg.StaticDir)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{
		"HTTP_PORT":     "9090",
		"DATABASE_PATH": ":memory:",
		"API_KEY":       " s3cret ",
		"LOG_LEVEL":     "DEBUG",
		"LOG_FORMAT":    "json",
		"TIMEZONE":      "America/Chicago",
		"CORS_ORIGINS":  "https://kiosk.example.com, ,https://admin.example.com",
		"SEED_DEMO":     "true",
	}))

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, ":memory:", cfg.DatabasePath)
	assert.Equal(t, "s3cret", cfg.APIKey)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://kiosk.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.SeedDemo)
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{"HTTP_PORT": "eighty", "SEED_DEMO": "maybe"}))
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.False(t, cfg.SeedDemo)

	cfg = FromEnv(envMap(map[string]string{"HTTP_PORT": "70000"}))
	assert.Equal(t, 8080, cfg.HTTPPort)
}

func TestLocation(t *testing.T) {
	loc, err := Config{Timezone: "Local"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = Config{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = Config{Timezone: "Mars/Olympus_Mons"}.Location()
	assert.Error(t, err)
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	Config{LogLevel: "info", LogFormat: "json"}.NewLogger(&buf).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	Config{LogLevel: "warn", LogFormat: "text"}.NewLogger(&buf).Info("dropped")
	assert.Empty(t, buf.String())
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATABASE_PATH=from-dotenv.db\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	// godotenv never overrides a variable that is already set
	old, had := os.LookupEnv("DATABASE_PATH")
	os.Unsetenv("DATABASE_PATH")
	t.Cleanup(func() {
		if had {
			os.Setenv("DATABASE_PATH", old)
		} else {
			os.Unsetenv("DATABASE_PATH")
		}
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.DatabasePath)
}
