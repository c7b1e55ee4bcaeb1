// Package cliapp holds the flag set and startup sequence shared by the
// command-line programs: load the configuration, let flags override it,
// then build the logger, the reporter and the device context.
package cliapp

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/cwbudde/algo-accel/device"
	"github.com/cwbudde/algo-accel/internal/config"
	"github.com/cwbudde/algo-accel/internal/logger"
	"github.com/cwbudde/algo-accel/internal/report"
	"github.com/cwbudde/algo-accel/internal/version"
)

// Options receives the values of the common flags.
type Options struct {
	ConfigPath string
	Format     string
	Backend    string
	Workers    int64
	LogLevel   string
	LogFormat  string
	Debug      bool
}

// Flags returns the flags every program accepts, bound to o.
func (o *Options) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to a YAML configuration file",
			Sources:     cli.EnvVars("ALGO_ACCEL_CONFIG"),
			Destination: &o.ConfigPath,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "report format (text, json)",
			Value:       string(report.Text),
			Destination: &o.Format,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "device backend (host, cuda, auto)",
			Value:       device.Host,
			Destination: &o.Backend,
		},
		&cli.Int64Flag{
			Name:        "workers",
			Usage:       "launch worker goroutines (0 uses GOMAXPROCS)",
			Destination: &o.Workers,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &o.LogLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &o.LogFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &o.Debug,
		},
	}
}

// Resolve loads the configuration file and applies every flag that was
// set explicitly on the command line.
func (o *Options) Resolve(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.IsSet("format") {
		cfg.Report.Format = o.Format
	}
	if cmd.IsSet("backend") {
		cfg.Device.Backend = o.Backend
	}
	if cmd.IsSet("workers") {
		cfg.Device.Workers = int(o.Workers)
	}
	if cmd.IsSet("log-level") {
		cfg.Log.Level = o.LogLevel
	}
	if cmd.IsSet("log-format") {
		cfg.Log.Format = o.LogFormat
	}
	if o.Debug {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

// Env is everything a program needs to run one example.
type Env struct {
	Config config.Config
	Log    logger.Logger
	Report *report.Reporter
	Device *device.Context
}

// Setup builds the runtime environment from cfg. Reports go to out and
// logs to logw. The returned context carries the logger.
func Setup(ctx context.Context, cfg config.Config, out, logw io.Writer) (context.Context, *Env, error) {
	log, err := logger.Configure(logw, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return ctx, nil, err
	}
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return ctx, nil, err
	}
	rep := report.New(out, format)
	log = log.With("run_id", rep.RunID())

	dev, err := device.Open(cfg.Device.Backend,
		device.WithDeviceIndex(cfg.Device.Index),
		device.WithWorkers(cfg.Device.Workers),
		device.WithMemoryLimit(cfg.Device.MemoryLimit),
		device.WithLogger(log),
	)
	if err != nil {
		return ctx, &Env{Config: cfg, Log: log, Report: rep}, device.Check("device", "open", err)
	}
	info := dev.Info()
	log.Debug("device opened", "name", info.Name, "backend", info.Backend, "workers", info.Workers)

	return logger.WithContext(ctx, log), &Env{Config: cfg, Log: log, Report: rep, Device: dev}, nil
}

// Close releases the device context.
func (e *Env) Close() error {
	if e == nil || e.Device == nil {
		return nil
	}
	return e.Device.Close()
}

// Fail writes err through the reporter, or as plain text when no
// reporter exists yet, and returns an exit error with status 1.
func Fail(out io.Writer, env *Env, err error) error {
	if env != nil && env.Report != nil {
		if werr := env.Report.Failure(err); werr == nil {
			return cli.Exit("", 1)
		}
	}
	_, _ = fmt.Fprintln(out, err)
	return cli.Exit("", 1)
}

// VersionCommand prints the build metadata.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return PrintVersion(cmd.Root().Writer)
		},
	}
}

// PrintVersion writes the build metadata to w, or to stdout when w is nil.
func PrintVersion(w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	info := version.Resolve()
	if _, err := fmt.Fprintf(w, "version:    %s\n", info.Version); err != nil {
		return err
	}
	if info.Commit != "" {
		_, _ = fmt.Fprintf(w, "commit:     %s\n", info.Commit)
	}
	if info.BuildTime != "" {
		_, _ = fmt.Fprintf(w, "build time: %s\n", info.BuildTime)
	}
	_, err := fmt.Fprintf(w, "go:         %s\n", info.GoVersion)
	return err
}
