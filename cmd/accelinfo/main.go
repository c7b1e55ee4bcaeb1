// Command accelinfo prints the devices and transform engines available in
// this build, and optionally checks every engine with a round trip.
//
// Usage:
//
//	accelinfo [flags]
//
// Examples:
//
//	accelinfo
//	accelinfo --engines
//	accelinfo --check --nx 64 --ny 48
package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-accel/device"
	"github.com/cwbudde/algo-accel/internal/cliapp"
	"github.com/cwbudde/algo-accel/transform"
)

var (
	backend     string
	enginesOnly bool
	check       bool
	nx, ny      int64
)

func main() {
	app := &cli.Command{
		Name:  "accelinfo",
		Usage: "List devices and transform engines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "backend",
				Usage:       "device backend to enumerate (host, cuda, auto)",
				Value:       device.Auto,
				Destination: &backend,
			},
			&cli.BoolFlag{
				Name:        "engines",
				Usage:       "list transform engines only",
				Destination: &enginesOnly,
			},
			&cli.BoolFlag{
				Name:        "check",
				Usage:       "run a forward/inverse round trip on every engine",
				Destination: &check,
			},
			&cli.Int64Flag{Name: "nx", Usage: "round trip grid rows", Value: 32, Destination: &nx},
			&cli.Int64Flag{Name: "ny", Usage: "round trip grid columns", Value: 32, Destination: &ny},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			if !enginesOnly {
				if err := printDevices(w, backend); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(w)
			}
			if err := printEngines(w); err != nil {
				return err
			}
			if check {
				_, _ = fmt.Fprintln(w)
				return printCheck(w, int(nx), int(ny))
			}
			return nil
		},
		Commands: []*cli.Command{cliapp.VersionCommand()},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printDevices(w io.Writer, backend string) error {
	devs, err := device.Devices(backend)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Index\tDevice\tBackend\tArch\tWorkers\tFeatures\n")
	_, _ = fmt.Fprintf(tw, "-----\t------\t-------\t----\t-------\t--------\n")
	for _, d := range devs {
		features := strings.Join(d.Features, " ")
		if features == "" {
			features = "-"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", d.Index, d.Name, d.Backend, d.Arch, d.Workers, features)
	}
	return tw.Flush()
}

func printEngines(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Engine\tDefault\tDescription\n")
	_, _ = fmt.Fprintf(tw, "------\t-------\t-----------\n")
	for _, e := range transform.Engines() {
		def := ""
		if e.Name() == transform.Default {
			def = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name(), def, e.Description())
	}
	return tw.Flush()
}

// printCheck transforms a noise grid forward and back on each engine and
// reports the worst deviation from the input after 1/(nx*ny) scaling.
func printCheck(w io.Writer, nx, ny int) error {
	if nx < 1 || ny < 1 {
		return fmt.Errorf("accelinfo: grid %dx%d: %w", nx, ny, transform.ErrInvalidSize)
	}
	rng := rand.New(rand.NewSource(1))
	src := make([]float64, nx*ny)
	for i := range src {
		src[i] = 2*rng.Float64() - 1
	}
	bins := make([]complex128, nx*(ny/2+1))
	out := make([]float64, nx*ny)
	scale := 1 / float64(nx*ny)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Engine\tGrid\tMax Error\n")
	_, _ = fmt.Fprintf(tw, "------\t----\t---------\n")
	for _, e := range transform.Engines() {
		if err := roundTrip(e, nx, ny, out, bins, src); err != nil {
			return fmt.Errorf("accelinfo: %s: %w", e.Name(), err)
		}
		for i := range out {
			out[i] *= scale
		}
		_, _ = fmt.Fprintf(tw, "%s\t%dx%d\t%.3g\n", e.Name(), nx, ny, floats.Distance(out, src, math.Inf(1)))
	}
	return tw.Flush()
}

func roundTrip(e transform.Engine, nx, ny int, dst []float64, bins []complex128, src []float64) error {
	p, err := e.NewRealPlan2D(nx, ny)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()
	if err := p.Forward(bins, src); err != nil {
		return err
	}
	return p.Inverse(dst, bins)
}
