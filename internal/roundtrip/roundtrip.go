// Package roundtrip runs the 2D real transform example: upload a sequential
// grid, transform it, scale a frequency band, transform back, normalize,
// and report every intermediate result.
package roundtrip

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-accel/device"
	"github.com/cwbudde/algo-accel/dsp/buffer"
	"github.com/cwbudde/algo-accel/dsp/scale"
	"github.com/cwbudde/algo-accel/dsp/spectrum"
	"github.com/cwbudde/algo-accel/internal/config"
	"github.com/cwbudde/algo-accel/internal/logger"
	"github.com/cwbudde/algo-accel/internal/report"
	"github.com/cwbudde/algo-accel/internal/teardown"
	"github.com/cwbudde/algo-accel/transform"
)

// Stage is a step of the pipeline. Stages run once each, in order.
type Stage int

const (
	StageInit Stage = iota
	StageAllocate
	StageForward
	StageReportSpectrum
	StageScale
	StageReportScaled
	StageInverse
	StageNormalize
	StageReportOutput
	StageTeardown
)

var stageNames = [...]string{
	StageInit:           "init",
	StageAllocate:       "allocate",
	StageForward:        "forward",
	StageReportSpectrum: "report-spectrum",
	StageScale:          "scale",
	StageReportScaled:   "report-scaled",
	StageInverse:        "inverse",
	StageNormalize:      "normalize",
	StageReportOutput:   "report-output",
	StageTeardown:       "teardown",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Result holds host copies of every reported buffer. Stage is the stage
// that failed, or StageTeardown after a complete run.
type Result struct {
	Stage    Stage
	Input    []float64
	Spectrum []complex128
	Masked   []complex128
	Output   []float64
}

type run struct {
	cfg config.RoundTripConfig
	dev *device.Context
	rep *report.Reporter
	log logger.Logger
	res *Result
	td  teardown.Stack

	nx, ny, nyh, batch int

	stream   *device.Stream
	fwd, inv *transform.Plan

	host    *buffer.Manager
	in, out *buffer.Buffer
	bins    *buffer.Complex

	dReal *device.RealBuffer
	dSpec *device.ComplexBuffer
}

// Run executes the pipeline on dev. Every resource acquired is released
// before Run returns, whether or not a stage failed. The returned Result
// is never nil.
func Run(ctx context.Context, dev *device.Context, cfg config.RoundTripConfig, rep *report.Reporter) (res *Result, err error) {
	r := &run{
		cfg:   cfg,
		dev:   dev,
		rep:   rep,
		log:   logger.FromContext(ctx).With("pipeline", "roundtrip"),
		res:   &Result{},
		nx:    cfg.NX,
		ny:    cfg.NY,
		nyh:   cfg.NY/2 + 1,
		batch: cfg.Batch,
		host:  buffer.NewManager(),
	}
	defer func() {
		stopped := r.res.Stage
		r.enter(StageTeardown)
		if err != nil {
			r.res.Stage = stopped
		}
		if r.stream != nil {
			// Queued operations may still reference the buffers.
			_ = r.stream.Synchronize()
		}
		if terr := r.td.Run(r.log); err == nil && terr != nil {
			err = device.Check("device", "teardown", terr)
		}
		if err != nil {
			r.log.Error("round trip failed", "stage", r.res.Stage, "error", err)
		}
	}()

	stages := []struct {
		stage Stage
		fn    func() error
	}{
		{StageInit, r.setup},
		{StageAllocate, r.allocate},
		{StageForward, r.forward},
		{StageReportSpectrum, r.reportSpectrum},
		{StageScale, r.applyMask},
		{StageReportScaled, r.reportScaled},
		{StageInverse, r.inverse},
		{StageNormalize, r.normalize},
		{StageReportOutput, r.reportOutput},
	}
	for _, st := range stages {
		r.enter(st.stage)
		if err := st.fn(); err != nil {
			return r.res, err
		}
	}
	return r.res, nil
}

func (r *run) enter(s Stage) {
	r.res.Stage = s
	r.log.Debug("stage", "stage", s)
}

func (r *run) setup() error {
	engine, err := transform.Lookup(r.cfg.Engine)
	if err != nil {
		return device.Check("transform", "lookup engine", err)
	}

	r.stream, err = r.dev.NewStream()
	if err != nil {
		return device.Check("device", "create stream", err)
	}
	r.td.Push("stream", r.stream.Close)

	r.fwd, err = transform.NewPlan2D(engine, r.nx, r.ny, transform.R2C, r.batch)
	if err != nil {
		return device.Check("transform", "create R2C plan", err)
	}
	r.td.Push("R2C plan", r.fwd.Destroy)

	r.inv, err = transform.NewPlan2D(engine, r.nx, r.ny, transform.C2R, r.batch)
	if err != nil {
		return device.Check("transform", "create C2R plan", err)
	}
	r.td.Push("C2R plan", r.inv.Destroy)

	if err := r.fwd.SetStream(r.stream); err != nil {
		return device.Check("transform", "set R2C stream", err)
	}
	if err := r.inv.SetStream(r.stream); err != nil {
		return device.Check("transform", "set C2R stream", err)
	}
	r.log.Debug("plans created", "engine", engine.Name(), "nx", r.nx, "ny", r.ny, "batch", r.batch)
	return nil
}

func (r *run) allocate() error {
	samples, bins := r.fwd.SampleLen(), r.fwd.SpectrumLen()

	var err error
	if r.in, err = r.host.Allocate(samples); err != nil {
		return device.Check("device", "allocate host input", err)
	}
	r.td.Push("host input", func() error { r.host.Release(r.in); return nil })
	if r.out, err = r.host.Allocate(samples); err != nil {
		return device.Check("device", "allocate host output", err)
	}
	r.td.Push("host output", func() error { r.host.Release(r.out); return nil })
	if r.bins, err = r.host.AllocateComplex(bins); err != nil {
		return device.Check("device", "allocate host spectrum", err)
	}
	r.td.Push("host spectrum", func() error { r.host.ReleaseComplex(r.bins); return nil })

	buffer.FillSequential(r.in)
	r.res.Input = append([]float64(nil), r.in.Samples()...)
	if err := r.rep.Input(r.in.Samples()); err != nil {
		return err
	}

	if r.dReal, err = r.dev.AllocReal(samples); err != nil {
		return device.Check("device", "allocate samples", err)
	}
	r.td.Push("device samples", r.dReal.Free)
	if r.dSpec, err = r.dev.AllocComplex(bins); err != nil {
		return device.Check("device", "allocate spectrum", err)
	}
	r.td.Push("device spectrum", r.dSpec.Free)

	if err := r.stream.CopyRealToDevice(r.dReal, r.in.Samples()); err != nil {
		return device.Check("device", "copy input to device", err)
	}
	return nil
}

func (r *run) forward() error {
	if err := r.fwd.ExecR2C(r.dReal, r.dSpec); err != nil {
		return device.Check("transform", "exec R2C", err)
	}
	return r.downloadSpectrum()
}

func (r *run) reportSpectrum() error {
	r.res.Spectrum = append([]complex128(nil), r.bins.Bins()...)
	if e, err := spectrum.PackedEnergy(r.res.Spectrum[:r.nx*r.nyh], r.nx, r.ny); err == nil {
		r.log.Debug("spectrum", "energy", e)
	}
	return r.rep.Spectrum(report.TitleBeforeScaling, r.res.Spectrum)
}

// applyMask scales the band mask over the packed spectrum viewed as nyh
// rows of nx bins.
func (r *run) applyMask() error {
	mask := scale.BandMask{
		Width:   r.nx,
		Height:  r.nyh,
		RThresh: r.cfg.Mask.RThresh,
		Scale:   r.cfg.Mask.Scale,
	}
	if err := scale.LaunchBandMask(r.stream, r.dSpec, mask, r.batch, r.cfg.BlockDim); err != nil {
		return device.Check("device", "launch band mask", err)
	}
	return r.downloadSpectrum()
}

func (r *run) reportScaled() error {
	r.res.Masked = append([]complex128(nil), r.bins.Bins()...)
	return r.rep.Spectrum(report.TitleAfterScaling, r.res.Masked)
}

func (r *run) inverse() error {
	if err := r.inv.ExecC2R(r.dSpec, r.dReal); err != nil {
		return device.Check("transform", "exec C2R", err)
	}
	return nil
}

func (r *run) normalize() error {
	norm := scale.Normalize{Width: r.ny, Height: r.nx, Scale: r.cfg.NormalizeScale()}
	if err := scale.LaunchNormalize(r.stream, r.dReal, norm, r.batch, r.cfg.BlockDim); err != nil {
		return device.Check("device", "launch normalize", err)
	}
	if err := r.stream.CopyRealToHost(r.out.Samples(), r.dReal); err != nil {
		return device.Check("device", "copy output to host", err)
	}
	return r.sync()
}

func (r *run) reportOutput() error {
	r.res.Output = append([]float64(nil), r.out.Samples()...)
	return r.rep.Output(r.res.Output)
}

func (r *run) downloadSpectrum() error {
	if err := r.stream.CopyComplexToHost(r.bins.Bins(), r.dSpec); err != nil {
		return device.Check("device", "copy spectrum to host", err)
	}
	return r.sync()
}

func (r *run) sync() error {
	if err := r.stream.Synchronize(); err != nil {
		return device.Check("device", "synchronize", err)
	}
	return nil
}
