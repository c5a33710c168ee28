package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sevlyar/go-daemon"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/sjcam/sjc-archived/internal/archiver"
	"github.com/sjcam/sjc-archived/internal/config"
	"github.com/sjcam/sjc-archived/internal/excluder"
	"github.com/sjcam/sjc-archived/internal/fileops"
)

// Set at build time: go build -ldflags "-X main.version=1.2.3"
var version = "dev"

func main() {
	app := &cli.Command{
		Name:    "sjc-archived",
		Usage:   "compress finished captures and archive them by date",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Sources: cli.EnvVars("SJC_CONFIG"),
				Value:   ".sjc-archived.yaml",
			},
			&cli.StringFlag{
				Name:    "indir",
				Aliases: []string{"i"},
				Usage:   "input directory (must exist)",
				Sources: cli.EnvVars("SJC_INDIR"),
			},
			&cli.StringFlag{
				Name:    "outdir",
				Aliases: []string{"o"},
				Usage:   "output base directory (must exist)",
				Sources: cli.EnvVars("SJC_OUTDIR"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "verbose text output",
				Sources: cli.EnvVars("SJC_VERBOSE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "logging level: debug, info, warn, error",
				Sources: cli.EnvVars("SJC_LOG_LEVEL"),
			},
			&cli.DurationFlag{
				Name:    "interval",
				Usage:   "pause between polls",
				Sources: cli.EnvVars("SJC_INTERVAL"),
				Value:   time.Second,
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Usage:   "glob patterns to exclude (repeat or comma-separated)",
				Sources: cli.EnvVars("SJC_EXCLUDE"),
			},
			&cli.BoolFlag{
				Name:    "daemonize",
				Usage:   "run as daemon",
				Sources: cli.EnvVars("SJC_DAEMONIZE"),
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Usage:   "dry run mode",
				Sources: cli.EnvVars("SJC_DRY_RUN"),
			},
			&cli.BoolFlag{
				Name:    "watch",
				Usage:   "wake the poll loop on filesystem events",
				Sources: cli.EnvVars("SJC_WATCH"),
			},
			&cli.StringFlag{
				Name:    "engine",
				Usage:   "file operations engine: exec, native",
				Sources: cli.EnvVars("SJC_ENGINE"),
			},
			&cli.StringFlag{
				Name:    "codec",
				Usage:   "compression codec (native engine): gzip, lz4",
				Sources: cli.EnvVars("SJC_CODEC"),
			},
			&cli.IntFlag{
				Name:    "level",
				Usage:   "compression level (1-9)",
				Sources: cli.EnvVars("SJC_LEVEL"),
			},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() > 0 {
		return fmt.Errorf("invalid arguments specified: %s", strings.Join(cmd.Args().Slice(), " "))
	}

	var cfg *config.Config
	configPath := cmd.String("config")

	// Only load config if the file exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.Default()
	}

	// Override config with flags if set
	if cmd.IsSet("indir") {
		cfg.Source = cmd.String("indir")
	}
	if cmd.IsSet("outdir") {
		cfg.Destination = cmd.String("outdir")
	}
	if cmd.IsSet("verbose") {
		cfg.Verbose = cmd.Bool("verbose")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("interval") {
		cfg.Interval = cmd.Duration("interval")
	}
	if cmd.IsSet("exclude") {
		exclude := cmd.StringSlice("exclude")
		var merged []string
		for _, e := range exclude {
			merged = append(merged, strings.Split(e, ",")...)
		}
		cfg.Exclude = merged
	}
	if cmd.IsSet("daemonize") {
		cfg.Daemonize = cmd.Bool("daemonize")
	}
	if cmd.IsSet("dry-run") {
		cfg.DryRun = cmd.Bool("dry-run")
	}
	if cmd.IsSet("watch") {
		cfg.Watch = cmd.Bool("watch")
	}
	if cmd.IsSet("engine") {
		cfg.Engine = cmd.String("engine")
	}
	if cmd.IsSet("codec") {
		cfg.Codec = cmd.String("codec")
	}
	if cmd.IsSet("level") {
		cfg.Level = int(cmd.Int("level"))
	}

	// Set log level from config; --verbose wins
	switch cfg.LogLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	var ops fileops.Ops
	var err error
	switch cfg.Engine {
	case "native":
		ops, err = fileops.NewNativeOps(fileops.Codec(cfg.Codec), cfg.Level)
	default:
		ops, err = fileops.NewExecOps(cfg.Level)
	}
	if err != nil {
		return err
	}

	ex, err := excluder.New(cfg.Exclude)
	if err != nil {
		return fmt.Errorf("failed to compile exclude patterns: %w", err)
	}

	// Only daemonize if config says so
	if cfg.Daemonize {
		daemonCtx := &daemon.Context{
			PidFileName: "sjc-archived.pid",
			PidFilePerm: 0644,
			LogFileName: "sjc-archived.log",
			LogFilePerm: 0640,
			WorkDir:     "./",
			Umask:       027,
			Args:        []string{"[sjc-archived]"},
		}

		d, err := daemonCtx.Reborn()
		if err != nil {
			log.Fatalf("Unable to run: %s", err)
		}
		if d != nil {
			return nil // Parent process exits
		}
		defer daemonCtx.Release()
		log.Info("Daemon started")
	} else {
		log.Info("Running in foreground (not daemonized)")
	}

	// SIGINT/SIGTERM set the cancellation; the loop drains and returns
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infof("Archiving %s -> %s every %s", cfg.Source, cfg.Destination, cfg.Interval)

	arch := archiver.New(cfg, ops, ex)
	if err := arch.Run(runCtx); err != nil {
		return err
	}

	if cfg.Daemonize {
		if err := os.Remove("sjc-archived.pid"); err != nil && !os.IsNotExist(err) {
			log.Warnf("Error removing PID file: %v", err)
		}
	}

	log.Info("Cleanup complete. Exiting.")
	return nil
}
