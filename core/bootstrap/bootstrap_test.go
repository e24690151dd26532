package bootstrap

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/examsbot/core/config"
	coredatabase "github.com/m3rciful/examsbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(Options{})
	require.Error(t, err)
}

func TestRunSkipsDisabledDatabase(t *testing.T) {
	connected := false
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	require.NoError(t, err)
	assert.Nil(t, res.DB)
	assert.False(t, connected)
}

func TestRunPropagatesConnectError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Enabled: true},
		LoggerInit: noLogger,
		Connect:    func(coredatabase.Config) (*sqlx.DB, error) { return nil, boom },
	})
	require.ErrorIs(t, err, boom)
}

func TestRunPropagatesLoggerError(t *testing.T) {
	boom := errors.New("no sink")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return boom },
	})
	require.ErrorIs(t, err, boom)
}

func TestRunDefaultsFillHooks(t *testing.T) {
	o := Options{}.withDefaults()
	assert.NotNil(t, o.LoggerInit)
	assert.NotNil(t, o.Connect)
	assert.NotNil(t, o.Migrate)
}
