package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.RestSeconds)
	assert.Equal(t, 0, cfg.CurrentDay)
	assert.Equal(t, "", cfg.Log.File)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.Equal(t, 3, cfg.Log.MaxBackups)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := "rest_seconds: 90\ncurrent_day: 12\nlog:\n  file: companion.log\n  max_backups: 7\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.RestSeconds)
	assert.Equal(t, 12, cfg.CurrentDay)
	assert.Equal(t, "companion.log", cfg.Log.File)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB, "unset key keeps its default")
	assert.Equal(t, 7, cfg.Log.MaxBackups)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("COMPANION_REST_SECONDS", "45")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.RestSeconds)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("rest_seconds: [oops"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestCurrentDayValue(t *testing.T) {
	day, ok := Config{CurrentDay: 14}.CurrentDayValue()
	assert.True(t, ok)
	assert.Equal(t, 14, day)

	_, ok = Config{}.CurrentDayValue()
	assert.False(t, ok)

	_, ok = Config{CurrentDay: -1}.CurrentDayValue()
	assert.False(t, ok)
}
