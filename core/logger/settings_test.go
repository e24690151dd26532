package logger

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/examsbot/core/config"
)

func TestResolveSettingsDefaults(t *testing.T) {
	s := resolveSettings(nil)
	assert.Equal(t, slog.LevelInfo, s.level)
	assert.Equal(t, formatJSON, s.format)
	assert.Equal(t, defaultKeyOrder, s.keyOrder)
	assert.Equal(t, 1, s.sampleNum)
	assert.Equal(t, 50, s.sampleDen)
	assert.Nil(t, s.file)

	s = resolveSettings(&coreconfig.Config{})
	assert.Equal(t, "prod", s.profile)
	assert.Equal(t, formatJSON, s.format)
}

func TestResolveSettingsOverrides(t *testing.T) {
	dir := t.TempDir()
	s := resolveSettings(&coreconfig.Config{Logging: coreconfig.LoggingConfig{
		Level:       "Warning",
		Profile:     "dev",
		Color:       true,
		KeysOrder:   "ts, level ,event,,",
		DebugSample: "0/0",
		Dir:         dir,
		File:        "bot.log",
	}})

	assert.Equal(t, slog.LevelWarn, s.level)
	assert.Equal(t, formatKV, s.format, "dev profile defaults to kv")
	assert.True(t, s.color)
	assert.Equal(t, []string{"ts", "level", "event"}, s.keyOrder)
	assert.Zero(t, s.sampleNum)
	assert.Zero(t, s.sampleDen)
	require.NotNil(t, s.file)
	assert.Equal(t, filepath.Join(dir, "bot.log"), s.file.Filename)
	assert.Equal(t, defaultMaxSizeMB, s.file.MaxSize)
}

func TestResolveSettingsColorNeedsKV(t *testing.T) {
	s := resolveSettings(&coreconfig.Config{Logging: coreconfig.LoggingConfig{Format: "json", Color: true}})
	assert.False(t, s.color)

	s = resolveSettings(&coreconfig.Config{Logging: coreconfig.LoggingConfig{DebugSample: "3/10"}})
	assert.Equal(t, 3, s.sampleNum)
	assert.Equal(t, 10, s.sampleDen)
}
