package transform

import (
	"fmt"

	"github.com/cwbudde/algo-accel/device"
)

// Kind selects the transform direction of a plan.
type Kind int

const (
	R2C Kind = iota
	C2R
)

func (k Kind) String() string {
	switch k {
	case R2C:
		return "R2C"
	case C2R:
		return "C2R"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Plan is a batched 2D real transform bound to a device stream.
// Executions are enqueued on the stream and complete asynchronously;
// a plan must not be executed from two streams at once.
type Plan struct {
	engine Engine
	impl   RealPlan2D
	kind   Kind

	nx, ny, batch int

	stream    *device.Stream
	scratch   []complex128
	destroyed bool
}

// NewPlan2D creates a plan for batch grids of nx×ny samples.
func NewPlan2D(engine Engine, nx, ny int, kind Kind, batch int) (*Plan, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: nil engine", ErrInvalidPlan)
	}
	if nx < 1 || ny < 1 || batch < 1 {
		return nil, fmt.Errorf("%w: %dx%d batch %d", ErrInvalidSize, nx, ny, batch)
	}
	if kind != R2C && kind != C2R {
		return nil, fmt.Errorf("%w: unsupported kind %v", ErrInvalidPlan, kind)
	}
	impl, err := engine.NewRealPlan2D(nx, ny)
	if err != nil {
		return nil, fmt.Errorf("transform: create %s %s plan %dx%d: %w", engine.Name(), kind, nx, ny, err)
	}
	return &Plan{
		engine:  engine,
		impl:    impl,
		kind:    kind,
		nx:      nx,
		ny:      ny,
		batch:   batch,
		scratch: make([]complex128, nx*(ny/2+1)),
	}, nil
}

// Kind reports the plan direction.
func (p *Plan) Kind() Kind { return p.kind }

// Engine reports the engine backing the plan.
func (p *Plan) Engine() Engine { return p.engine }

// Dims reports the grid shape and batch count.
func (p *Plan) Dims() (nx, ny, batch int) { return p.nx, p.ny, p.batch }

// SampleLen is the number of real samples across all batches.
func (p *Plan) SampleLen() int { return p.batch * p.nx * p.ny }

// SpectrumLen is the number of packed complex bins across all batches.
func (p *Plan) SpectrumLen() int { return p.batch * p.nx * (p.ny/2 + 1) }

// SetStream binds the stream later executions are issued on.
func (p *Plan) SetStream(s *device.Stream) error {
	if p.destroyed {
		return fmt.Errorf("%w: destroyed", ErrInvalidPlan)
	}
	if s == nil {
		return fmt.Errorf("%w: nil stream", ErrInvalidPlan)
	}
	p.stream = s
	return nil
}

// ExecR2C enqueues the forward transform of in into out.
func (p *Plan) ExecR2C(in *device.RealBuffer, out *device.ComplexBuffer) error {
	if err := p.ready(R2C); err != nil {
		return err
	}
	if in == nil || out == nil || in.Len() != p.SampleLen() || out.Len() != p.SpectrumLen() {
		return fmt.Errorf("%w: R2C wants %d samples and %d bins", ErrInvalidSize, p.SampleLen(), p.SpectrumLen())
	}

	samples, bins := p.nx*p.ny, len(p.scratch)
	return p.stream.Enqueue("exec R2C", func() error {
		src, dst := in.Data(), out.Data()
		if src == nil || dst == nil {
			return fmt.Errorf("%w: buffer freed before execution", ErrInvalidPlan)
		}
		for b := 0; b < p.batch; b++ {
			if err := p.impl.Forward(p.scratch, src[b*samples:(b+1)*samples]); err != nil {
				return fmt.Errorf("%w: batch %d: %w", ErrExecFailed, b, err)
			}
			device.Interleave(dst[2*b*bins:2*(b+1)*bins], p.scratch)
		}
		return nil
	})
}

// ExecC2R enqueues the inverse transform of in into out.
func (p *Plan) ExecC2R(in *device.ComplexBuffer, out *device.RealBuffer) error {
	if err := p.ready(C2R); err != nil {
		return err
	}
	if in == nil || out == nil || in.Len() != p.SpectrumLen() || out.Len() != p.SampleLen() {
		return fmt.Errorf("%w: C2R wants %d bins and %d samples", ErrInvalidSize, p.SpectrumLen(), p.SampleLen())
	}

	samples, bins := p.nx*p.ny, len(p.scratch)
	return p.stream.Enqueue("exec C2R", func() error {
		src, dst := in.Data(), out.Data()
		if src == nil || dst == nil {
			return fmt.Errorf("%w: buffer freed before execution", ErrInvalidPlan)
		}
		for b := 0; b < p.batch; b++ {
			device.Deinterleave(p.scratch, src[2*b*bins:2*(b+1)*bins])
			if err := p.impl.Inverse(dst[b*samples:(b+1)*samples], p.scratch); err != nil {
				return fmt.Errorf("%w: batch %d: %w", ErrExecFailed, b, err)
			}
		}
		return nil
	})
}

// Destroy releases the engine plan. Destroying twice returns ErrInvalidPlan.
func (p *Plan) Destroy() error {
	if p.destroyed {
		return fmt.Errorf("%w: already destroyed", ErrInvalidPlan)
	}
	p.destroyed = true
	p.stream = nil
	return p.impl.Close()
}

func (p *Plan) ready(kind Kind) error {
	switch {
	case p.destroyed:
		return fmt.Errorf("%w: destroyed", ErrInvalidPlan)
	case p.kind != kind:
		return fmt.Errorf("%w: %s plan executed as %s", ErrInvalidPlan, p.kind, kind)
	case p.stream == nil:
		return fmt.Errorf("%w: no stream bound", ErrInvalidPlan)
	}
	return nil
}
