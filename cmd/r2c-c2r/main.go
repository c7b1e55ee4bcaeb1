// Command r2c-c2r runs the batched 2D real-to-complex round trip: forward
// transform, band mask on the spectrum, inverse transform, normalization.
//
// Usage:
//
//	r2c-c2r [flags]
//	r2c-c2r --engine godsp --batch 4
//	r2c-c2r --config roundtrip.yaml --format json
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/cwbudde/algo-accel/internal/cliapp"
	"github.com/cwbudde/algo-accel/internal/roundtrip"
)

var (
	opts   cliapp.Options
	engine string
	batch  int64
)

func main() {
	app := &cli.Command{
		Name:  "r2c-c2r",
		Usage: "Forward and inverse 2D real FFT with a band mask in between",
		Flags: append(opts.Flags(),
			&cli.StringFlag{
				Name:        "engine",
				Usage:       "transform engine (algofft, godsp)",
				Value:       "algofft",
				Destination: &engine,
			},
			&cli.Int64Flag{
				Name:        "batch",
				Usage:       "number of grids transformed per launch",
				Value:       1,
				Destination: &batch,
			},
		),
		Action:   run,
		Commands: []*cli.Command{cliapp.VersionCommand()},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := opts.Resolve(cmd)
	if err != nil {
		return cliapp.Fail(os.Stdout, nil, err)
	}
	if cmd.IsSet("engine") {
		cfg.RoundTrip.Engine = engine
	}
	if cmd.IsSet("batch") {
		cfg.RoundTrip.Batch = int(batch)
	}
	if err := cfg.Validate(); err != nil {
		return cliapp.Fail(os.Stdout, nil, err)
	}

	ctx, env, err := cliapp.Setup(ctx, cfg, os.Stdout, os.Stderr)
	if err != nil {
		return cliapp.Fail(os.Stdout, env, err)
	}
	defer func() { _ = env.Close() }()

	if _, err := roundtrip.Run(ctx, env.Device, cfg.RoundTrip, env.Report); err != nil {
		return cliapp.Fail(os.Stdout, env, err)
	}
	return nil
}
