// Command rot applies a Givens rotation to a sparse vector and its dense
// partner on the device, then checks the result against the expected
// values. A mismatch is reported but does not change the exit status.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/cwbudde/algo-accel/internal/cliapp"
	"github.com/cwbudde/algo-accel/internal/rotexample"
)

var opts cliapp.Options

func main() {
	app := &cli.Command{
		Name:     "rot",
		Usage:    "Sparse-dense Givens rotation example",
		Flags:    opts.Flags(),
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

	ctx, env, err := cliapp.Setup(ctx, cfg, os.Stdout, os.Stderr)
	if err != nil {
		return cliapp.Fail(os.Stdout, env, err)
	}
	defer func() { _ = env.Close() }()

	res, err := rotexample.Run(ctx, env.Device, cfg.Rot, env.Report)
	if err != nil {
		return cliapp.Fail(os.Stdout, env, err)
	}
	if err := res.Err(); err != nil {
		env.Log.Warn("self-check failed", "error", err)
	}
	return nil
}
