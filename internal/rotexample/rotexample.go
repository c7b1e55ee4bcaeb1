// Package rotexample runs the sparse rotation example: rotate a sparse
// vector against a dense one on the device and check the result against
// expected values.
package rotexample

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-accel/device"
	"github.com/cwbudde/algo-accel/internal/config"
	"github.com/cwbudde/algo-accel/internal/logger"
	"github.com/cwbudde/algo-accel/internal/report"
	"github.com/cwbudde/algo-accel/internal/teardown"
	"github.com/cwbudde/algo-accel/linalg/sparse"
)

// Name labels the self-check verdict.
const Name = "rot_example"

// ErrMismatch reports a result outside the tolerance of the expected values.
var ErrMismatch = errors.New("rotexample: wrong result")

// Result holds the downloaded vectors and the self-check verdict.
type Result struct {
	X, Y   []float64
	Passed bool

	// Mismatch describes the first element outside tolerance.
	Mismatch string
}

// Err returns ErrMismatch, with the failing element, when the check failed.
func (r *Result) Err() error {
	if r.Passed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMismatch, r.Mismatch)
}

// Reference computes the rotation on the host.
func Reference(cfg config.RotConfig) (x, y []float64) {
	x = append([]float64(nil), cfg.Values...)
	y = append([]float64(nil), cfg.Y...)
	base := 0
	if strings.EqualFold(cfg.Base, "one") {
		base = 1
	}
	for i, raw := range cfg.Indices {
		j := int(raw) - base
		xi, yj := x[i], y[j]
		x[i] = cfg.C*xi + cfg.S*yj
		y[j] = cfg.C*yj - cfg.S*xi
	}
	return x, y
}

// Run executes the example on dev. A failed self-check is reported and
// returned in the Result, not as an error; errors are device or library
// failures.
func Run(ctx context.Context, dev *device.Context, cfg config.RotConfig, rep *report.Reporter) (res *Result, err error) {
	log := logger.FromContext(ctx).With("pipeline", "rot")
	res = &Result{}

	var td teardown.Stack
	var stream *device.Stream
	defer func() {
		if stream != nil {
			_ = stream.Synchronize()
		}
		if terr := td.Run(log); err == nil && terr != nil {
			err = device.Check("device", "teardown", terr)
		}
	}()

	nnz := len(cfg.Values)
	stream, err = dev.NewStream()
	if err != nil {
		return res, device.Check("device", "create stream", err)
	}
	td.Push("stream", stream.Close)

	idx, err := dev.AllocIndex(nnz)
	if err != nil {
		return res, device.Check("device", "allocate indices", err)
	}
	td.Push("indices", idx.Free)
	xv, err := dev.AllocReal(nnz)
	if err != nil {
		return res, device.Check("device", "allocate x values", err)
	}
	td.Push("x values", xv.Free)
	yv, err := dev.AllocReal(cfg.Size)
	if err != nil {
		return res, device.Check("device", "allocate y", err)
	}
	td.Push("y", yv.Free)

	if err := stream.CopyIndexToDevice(idx, cfg.Indices); err != nil {
		return res, device.Check("device", "copy indices", err)
	}
	if err := stream.CopyRealToDevice(xv, cfg.Values); err != nil {
		return res, device.Check("device", "copy x values", err)
	}
	if err := stream.CopyRealToDevice(yv, cfg.Y); err != nil {
		return res, device.Check("device", "copy y", err)
	}

	if err := rotate(dev, stream, cfg, idx, xv, yv); err != nil {
		return res, err
	}

	res.X = make([]float64, nnz)
	res.Y = make([]float64, cfg.Size)
	if err := stream.CopyRealToHost(res.Y, yv); err != nil {
		return res, device.Check("device", "copy y to host", err)
	}
	if err := stream.CopyRealToHost(res.X, xv); err != nil {
		return res, device.Check("device", "copy x to host", err)
	}
	if err := stream.Synchronize(); err != nil {
		return res, device.Check("device", "synchronize", err)
	}

	res.Passed, res.Mismatch = check(cfg, res.X, res.Y)
	if !res.Passed {
		log.Warn("self-check failed", "mismatch", res.Mismatch)
	}
	if err := rep.Check(Name, res.Passed); err != nil {
		return res, err
	}
	return res, nil
}

// rotate issues the rotation with a handle and descriptors that live only
// for the call.
func rotate(dev *device.Context, stream *device.Stream, cfg config.RotConfig, idx *device.IndexBuffer, xv, yv *device.RealBuffer) (err error) {
	var td teardown.Stack
	defer func() {
		if terr := td.Run(logger.Nop()); err == nil && terr != nil {
			err = device.Check("sparse", "destroy", terr)
		}
	}()

	h, err := sparse.NewHandle(dev)
	if err != nil {
		return device.Check("sparse", "create handle", err)
	}
	td.Push("handle", h.Destroy)
	if err := h.SetStream(stream); err != nil {
		return device.Check("sparse", "set stream", err)
	}

	base := sparse.IndexBaseZero
	if strings.EqualFold(cfg.Base, "one") {
		base = sparse.IndexBaseOne
	}
	x, err := sparse.NewSpVec(cfg.Size, len(cfg.Values), idx, xv, base)
	if err != nil {
		return device.Check("sparse", "create sparse vector", err)
	}
	td.Push("sparse vector", x.Destroy)
	y, err := sparse.NewDnVec(cfg.Size, yv)
	if err != nil {
		return device.Check("sparse", "create dense vector", err)
	}
	td.Push("dense vector", y.Destroy)

	if err := h.Rot(cfg.C, cfg.S, x, y); err != nil {
		return device.Check("sparse", "rot", err)
	}
	return nil
}

// check compares against the configured expectations, or against the host
// reference when none are configured.
func check(cfg config.RotConfig, x, y []float64) (bool, string) {
	wantX, wantY := cfg.ExpectedX, cfg.ExpectedY
	if len(wantX) == 0 && len(wantY) == 0 {
		wantX, wantY = Reference(cfg)
	}
	for i, want := range wantY {
		if math.Abs(y[i]-want) > cfg.Tolerance {
			return false, fmt.Sprintf("y[%d] = %f, want %f", i, y[i], want)
		}
	}
	for i, want := range wantX {
		if math.Abs(x[i]-want) > cfg.Tolerance {
			return false, fmt.Sprintf("x[%d] = %f, want %f", i, x[i], want)
		}
	}
	return true, ""
}
