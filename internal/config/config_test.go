package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.Equal(t, time.Second, cfg.Interval)
	require.Equal(t, "exec", cfg.Engine)
	require.Equal(t, "gzip", cfg.Codec)
	require.Equal(t, 1, cfg.Level)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.yaml")
	data := []byte(`
indir: /data/in
outdir: /data/out
verbose: true
engine: native
codec: lz4
level: 3
exclude:
  - dark_*
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/data/in", cfg.Source)
	require.Equal(t, "/data/out", cfg.Destination)
	require.True(t, cfg.Verbose)
	require.Equal(t, "native", cfg.Engine)
	require.Equal(t, "lz4", cfg.Codec)
	require.Equal(t, 3, cfg.Level)
	require.Equal(t, []string{"dark_*"}, cfg.Exclude)
	// Unset values keep their defaults
	require.Equal(t, time.Second, cfg.Interval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := Default()
	cfg.Source = t.TempDir()
	cfg.Destination = t.TempDir()
	return cfg
}

func TestValidate(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, cfg.Validate())
	require.True(t, filepath.IsAbs(cfg.Source))
	require.True(t, filepath.IsAbs(cfg.Destination))
}

func TestValidateMissingDirs(t *testing.T) {
	cfg := Default()
	require.ErrorContains(t, cfg.Validate(), "no input directory")

	cfg.Source = t.TempDir()
	require.ErrorContains(t, cfg.Validate(), "no output directory")

	cfg.Destination = filepath.Join(t.TempDir(), "does-not-exist")
	require.Error(t, cfg.Validate())
}

func TestValidateSourceIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	cfg.Source = file
	require.ErrorContains(t, cfg.Validate(), "not a directory")
}

func TestValidateEngineAndCodec(t *testing.T) {
	cfg := validConfig(t)
	cfg.Engine = "magic"
	require.ErrorContains(t, cfg.Validate(), "unknown engine")

	cfg = validConfig(t)
	cfg.Codec = "lz4"
	require.ErrorContains(t, cfg.Validate(), "exec engine only supports")

	cfg = validConfig(t)
	cfg.Engine = "native"
	cfg.Codec = "lz4"
	require.NoError(t, cfg.Validate())

	cfg = validConfig(t)
	cfg.Engine = "native"
	cfg.Codec = "zstd"
	require.ErrorContains(t, cfg.Validate(), "unknown codec")
}

func TestValidateBounds(t *testing.T) {
	cfg := validConfig(t)
	cfg.Interval = 0
	require.ErrorContains(t, cfg.Validate(), "interval")

	cfg = validConfig(t)
	cfg.Level = 10
	require.ErrorContains(t, cfg.Validate(), "compression level")
}
