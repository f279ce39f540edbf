package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gwos/tstamp/timestamp"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	configYAML := []byte(`
logger:
  level: 3
  condense: 10s
  timeFormat: "15:04:05"
calc:
  strict: true
  offset: "000001.500000"
  metricsNamespace: "test"
`)
	configPath := filepath.Join(t.TempDir(), "tscalc.yaml")
	require.NoError(t, os.WriteFile(configPath, configYAML, 0644))

	t.Setenv(ConfigEnv, configPath)
	t.Setenv("TSCALC_CALC_OFFSET", "2.25")
	t.Setenv("TSCALC_LOG_COLORS", "true")

	got := Load()
	expected := Config{
		Logger: Logger{
			LogCondense:    10 * time.Second,
			LogFileMaxSize: 1024 * 1024 * 10,
			LogFileRotate:  5,
			LogLevel:       Debug,
			LogColors:      true,
			LogTimeFormat:  "15:04:05",
		},
		Calc: Calc{
			Strict:           true,
			Offset:           timestamp.New(2_250_000),
			MetricsNamespace: "test",
		},
	}
	assert.Equal(t, expected, *got)
	assert.Equal(t, zerolog.DebugLevel, got.Level())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	got := Load()
	assert.Equal(t, defaults(), *got)
	assert.Equal(t, zerolog.WarnLevel, got.Level())
	assert.True(t, got.Calc.Offset.IsZero())
}

func TestLoadBadOffset(t *testing.T) {
	t.Setenv(ConfigEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TSCALC_CALC_OFFSET", "-1")

	got := Load()
	assert.True(t, got.Calc.Offset.IsZero())
}

func TestBindFlags(t *testing.T) {
	defer func(prefix, configEnv string) {
		EnvPrefix, ConfigEnv = prefix, configEnv
	}(EnvPrefix, ConfigEnv)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	require.NoError(t, flags.Parse([]string{"--env-prefix", "TS_", "--config-env", "TSCALC_CFG"}))
	ApplyFlags()
	assert.Equal(t, "TS_", EnvPrefix)
	assert.Equal(t, "TS_CFG", ConfigEnv)
}
