package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sjcam/sjc-archived/internal/utils"
)

// Config holds the configuration for the archive daemon.
type Config struct {
	Source      string        `yaml:"indir"`     // Directory to poll for finished captures
	Destination string        `yaml:"outdir"`    // Archive root
	Verbose     bool          `yaml:"verbose"`   // Per-file output (shorthand for log-level debug)
	LogLevel    string        `yaml:"log-level"` // Logging level: debug, info, warn, error
	Interval    time.Duration `yaml:"interval"`  // Pause between polls
	Exclude     []string      `yaml:"exclude"`   // Glob patterns to skip
	DryRun      bool          `yaml:"dry-run"`   // If true, don't compress or move files
	Daemonize   bool          `yaml:"daemonize"` // If true, run as daemon; if false, run in foreground
	Watch       bool          `yaml:"watch"`     // If true, wake the poll loop on filesystem events
	Engine      string        `yaml:"engine"`    // "exec" (gzip/mkdir/mv subprocesses) or "native"
	Codec       string        `yaml:"codec"`     // "gzip" or "lz4" (native engine only)
	Level       int           `yaml:"level"`     // Compression level
}

// Default returns a Config with the daemon's default settings.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Interval: time.Second,
		Engine:   "exec",
		Codec:    "gzip",
		Level:    1,
	}
}

// Load reads a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// Validate expands and absolutizes the directory settings and checks that
// they refer to existing directories. It must be called before the loop
// starts; a failure here is a startup error.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("no input directory specified")
	}
	if c.Destination == "" {
		return fmt.Errorf("no output directory specified")
	}

	src, err := filepath.Abs(utils.ExpandTilde(c.Source))
	if err != nil {
		return fmt.Errorf("could not resolve input directory: %w", err)
	}
	dst, err := filepath.Abs(utils.ExpandTilde(c.Destination))
	if err != nil {
		return fmt.Errorf("could not resolve output directory: %w", err)
	}

	if err := checkDir(src); err != nil {
		return fmt.Errorf("input directory: %w", err)
	}
	if err := checkDir(dst); err != nil {
		return fmt.Errorf("output directory: %w", err)
	}

	c.Source = src
	c.Destination = dst

	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.Level < 1 || c.Level > 9 {
		return fmt.Errorf("compression level must be between 1 and 9, got %d", c.Level)
	}

	switch c.Engine {
	case "exec":
		if c.Codec != "gzip" {
			return fmt.Errorf("the exec engine only supports the gzip codec, got %q", c.Codec)
		}
	case "native":
		if c.Codec != "gzip" && c.Codec != "lz4" {
			return fmt.Errorf("unknown codec %q", c.Codec)
		}
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}

	return nil
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
