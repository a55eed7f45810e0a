package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() (fs *flag.FlagSet, cfg *Config) {
	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs, Register(fs)
}

func TestDefaults(t *testing.T) {
	fs, cfg := newFlagSet()
	require.NoError(t, Parse(fs, nil))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 25.0, cfg.FramesPerSecond)
	assert.Equal(t, 50, cfg.PixelCount)
	assert.Equal(t, 0.1, cfg.Brightness)
	assert.Equal(t, "127.0.0.1:5000", cfg.Address())
	assert.Equal(t, []string{"mock"}, cfg.SinkNames())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PIXEL_COUNT", "30")
	t.Setenv("FRAMES_PER_SECOND", "60")
	t.Setenv("PORT", "6000")

	fs, cfg := newFlagSet()
	require.NoError(t, Parse(fs, []string{"-port", "7000", "-sink", "Term, mock,term"}))

	assert.Equal(t, 30, cfg.PixelCount)
	assert.Equal(t, 60.0, cfg.FramesPerSecond)
	// The command line wins over the environment
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, []string{"term", "mock"}, cfg.SinkNames())

	t.Setenv("BRIGHTNESS", "bright")
	fs, _ = newFlagSet()
	assert.Error(t, Parse(fs, nil))
}

func TestValidate(t *testing.T) {
	cases := []func(cfg *Config){
		func(cfg *Config) { cfg.FramesPerSecond = 0 },
		func(cfg *Config) { cfg.PixelCount = 0 },
		func(cfg *Config) { cfg.Brightness = 1.5 },
		func(cfg *Config) { cfg.Port = 70000 },
		func(cfg *Config) { cfg.OPCChannel = 256 },
		func(cfg *Config) { cfg.Sinks = " , " },
		func(cfg *Config) { cfg.Sinks = "mock,neopixel" },
	}
	for i, mutate := range cases {
		fs, cfg := newFlagSet()
		require.NoError(t, Parse(fs, nil))
		mutate(cfg)
		assert.Error(t, cfg.Validate(), "case %d", i)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(fn, []byte("LEDSERVER_TEST_HOST=10.0.0.1\nLEDSERVER_TEST_KEEP=env\n"), 0600))

	t.Setenv("LEDSERVER_TEST_KEEP", "process")
	t.Setenv("LEDSERVER_TEST_HOST", "")
	os.Unsetenv("LEDSERVER_TEST_HOST")

	require.NoError(t, LoadDotEnv(fn, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "10.0.0.1", os.Getenv("LEDSERVER_TEST_HOST"))
	assert.Equal(t, "process", os.Getenv("LEDSERVER_TEST_KEEP"))
	os.Unsetenv("LEDSERVER_TEST_HOST")

	assert.Equal(t, "PIXEL_COUNT", EnvName("pixel-count"))
}

func TestLoadReportsBadEnvFile(t *testing.T) {
	dir := t.TempDir()
	fs, _ := newFlagSet()
	// A directory passes the existence check but cannot be read as an env file
	assert.Error(t, Load(fs, nil, dir))

	fn := filepath.Join(dir, "ok.env")
	require.NoError(t, os.WriteFile(fn, []byte("LEDSERVER_TEST_PORT_UNUSED=1\n"), 0600))
	t.Setenv("PIXEL_COUNT", "12")

	fs, cfg := newFlagSet()
	require.NoError(t, Load(fs, []string{"-port", "9000"}, fn))
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 12, cfg.PixelCount)
	os.Unsetenv("LEDSERVER_TEST_PORT_UNUSED")
}
