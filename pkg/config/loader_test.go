package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbase/notifier/pkg/config"
)

type pollerConfig struct {
	Interval string `env:"TEST_POLL_INTERVAL" envDefault:"5s"`
	Workers  int    `env:"TEST_POLL_WORKERS" envDefault:"10"`
	Verbose  bool   `env:"TEST_POLL_VERBOSE" envDefault:"false"`
}

type cachedConfig struct {
	Value string `env:"TEST_CACHED_VALUE" envDefault:"initial"`
}

type requiredConfig struct {
	ConnURL string `env:"TEST_REQUIRED_CONN_URL,required"`
}

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("TEST_POLL_INTERVAL")
	os.Unsetenv("TEST_POLL_WORKERS")
	os.Unsetenv("TEST_POLL_VERBOSE")
	config.ResetCache()

	var cfg pollerConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "5s", cfg.Interval)
	assert.Equal(t, 10, cfg.Workers)
	assert.False(t, cfg.Verbose)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TEST_POLL_INTERVAL", "30s")
	t.Setenv("TEST_POLL_WORKERS", "4")
	t.Setenv("TEST_POLL_VERBOSE", "true")
	config.ResetCache()

	var cfg pollerConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "30s", cfg.Interval)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.Verbose)
}

func TestLoadMissingRequired(t *testing.T) {
	os.Unsetenv("TEST_REQUIRED_CONN_URL")
	config.ResetCache()

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoadCachesPerType(t *testing.T) {
	t.Setenv("TEST_CACHED_VALUE", "first")
	config.ResetCache()

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	// Environment changes after the first load are not observed.
	t.Setenv("TEST_CACHED_VALUE", "second")
	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	// A forced reload picks up the new environment.
	var third cachedConfig
	require.NoError(t, config.ForceReloadConfig(&third))
	assert.Equal(t, "second", third.Value)
}

func TestLoadNilPointer(t *testing.T) {
	var cfg *pollerConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoadEnvFiles(t *testing.T) {
	os.Unsetenv("TEST_FILE_VALUE")
	os.Unsetenv("TEST_FILE_ONLY_BASE")
	config.ResetCache()
	t.Cleanup(func() {
		os.Unsetenv("TEST_FILE_VALUE")
		os.Unsetenv("TEST_FILE_ONLY_BASE")
	})

	require.NoError(t, config.LoadEnv("testdata/.env.base", "testdata/.env.override"))

	// Later files win; values unique to the first file survive.
	assert.Equal(t, "from_override", os.Getenv("TEST_FILE_VALUE"))
	assert.Equal(t, "base_only", os.Getenv("TEST_FILE_ONLY_BASE"))

	assert.Error(t, config.LoadEnv("testdata/.env.missing"))
	assert.Panics(t, func() { config.MustLoadEnv("testdata/.env.missing") })
}

func TestMustLoadPanicsOnMissingRequired(t *testing.T) {
	os.Unsetenv("TEST_REQUIRED_CONN_URL")
	config.ResetCache()

	var cfg requiredConfig
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}
