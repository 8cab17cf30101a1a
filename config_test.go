package ceangal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte("eager_plans: true\ncycle_detection: false\nlogging: development\n"))
	require.NoError(t, err)

	assert.True(t, cfg.EagerPlans)
	require.NotNil(t, cfg.CycleDetection)
	assert.False(t, *cfg.CycleDetection)
	assert.Equal(t, "development", cfg.Logging)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("{}"))
	require.NoError(t, err)

	assert.False(t, cfg.EagerPlans)
	assert.Nil(t, cfg.CycleDetection, "unset cycle_detection must stay nil so the container default applies")
	assert.Empty(t, cfg.Logging)
}

func TestParseConfig_Invalid(t *testing.T) {
	_, err := ParseConfig([]byte("eager_plans: [not, a, bool]"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ceangal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("eager_plans: true\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.EagerPlans)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWithConfig(t *testing.T) {
	off := false
	container := New(WithConfig(Config{
		EagerPlans:     true,
		CycleDetection: &off,
		Logging:        "off",
	}))

	assert.True(t, container.eagerPlans)
	assert.False(t, container.detectCycles)
}

func TestWithConfig_UnknownLoggingMode(t *testing.T) {
	assert.Panics(t, func() {
		New(WithConfig(Config{Logging: "verbose"}))
	})
}
