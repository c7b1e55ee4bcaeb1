package transform

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-accel/device"
	"github.com/cwbudde/algo-accel/internal/testutil"
)

func newStream(t *testing.T) (*device.Context, *device.Stream) {
	t.Helper()
	ctx, err := device.Open(device.Host)
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	t.Cleanup(func() { _ = ctx.Close() })
	s, err := ctx.NewStream()
	if err != nil {
		t.Fatalf("NewStream error = %v", err)
	}
	return ctx, s
}

func TestPlanValidation(t *testing.T) {
	if _, err := NewPlan2D(nil, 5, 5, R2C, 1); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("nil engine error = %v, want ErrInvalidPlan", err)
	}
	if _, err := NewPlan2D(AlgoFFT(), 5, 0, R2C, 1); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("ny=0 error = %v, want ErrInvalidSize", err)
	}
	if _, err := NewPlan2D(AlgoFFT(), 5, 5, R2C, 0); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("batch=0 error = %v, want ErrInvalidSize", err)
	}
	if _, err := NewPlan2D(AlgoFFT(), 5, 5, Kind(9), 1); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("bad kind error = %v, want ErrInvalidPlan", err)
	}

	p, err := NewPlan2D(AlgoFFT(), 5, 5, R2C, 2)
	if err != nil {
		t.Fatal(err)
	}
	if p.SampleLen() != 50 || p.SpectrumLen() != 30 {
		t.Fatalf("SampleLen, SpectrumLen = %d, %d, want 50, 30", p.SampleLen(), p.SpectrumLen())
	}
}

func TestPlanExecRequiresStreamAndKind(t *testing.T) {
	ctx, s := newStream(t)
	in, _ := ctx.AllocReal(25)
	out, _ := ctx.AllocComplex(15)

	p, err := NewPlan2D(AlgoFFT(), 5, 5, R2C, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.ExecR2C(in, out); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("exec without stream error = %v, want ErrInvalidPlan", err)
	}
	if err := p.SetStream(s); err != nil {
		t.Fatal(err)
	}
	if err := p.ExecC2R(out, in); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("C2R on R2C plan error = %v, want ErrInvalidPlan", err)
	}
	short, _ := ctx.AllocComplex(14)
	if err := p.ExecR2C(in, short); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("short output error = %v, want ErrInvalidSize", err)
	}
	if err := p.Destroy(); err != nil {
		t.Fatal(err)
	}
	if err := p.Destroy(); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("double Destroy error = %v, want ErrInvalidPlan", err)
	}
	if err := p.ExecR2C(in, out); !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("exec after Destroy error = %v, want ErrInvalidPlan", err)
	}
}

func TestPlanBatchedRoundTrip(t *testing.T) {
	const nx, ny, batch = 4, 6, 3
	for _, e := range Engines() {
		ctx, s := newStream(t)
		fwd, err := NewPlan2D(e, nx, ny, R2C, batch)
		if err != nil {
			t.Fatal(err)
		}
		inv, err := NewPlan2D(e, nx, ny, C2R, batch)
		if err != nil {
			t.Fatal(err)
		}
		if err := fwd.SetStream(s); err != nil {
			t.Fatal(err)
		}
		if err := inv.SetStream(s); err != nil {
			t.Fatal(err)
		}

		src := testutil.DeterministicNoise(11, 1, nx*ny*batch)
		in, _ := ctx.AllocReal(fwd.SampleLen())
		freq, _ := ctx.AllocComplex(fwd.SpectrumLen())
		out, _ := ctx.AllocReal(inv.SampleLen())

		if err := s.CopyRealToDevice(in, src); err != nil {
			t.Fatal(err)
		}
		if err := fwd.ExecR2C(in, freq); err != nil {
			t.Fatal(err)
		}
		host := make([]complex128, fwd.SpectrumLen())
		if err := s.CopyComplexToHost(host, freq); err != nil {
			t.Fatal(err)
		}
		if err := inv.ExecC2R(freq, out); err != nil {
			t.Fatal(err)
		}
		back := make([]float64, inv.SampleLen())
		if err := s.CopyRealToHost(back, out); err != nil {
			t.Fatal(err)
		}
		if err := s.Synchronize(); err != nil {
			t.Fatalf("%s Synchronize error = %v", e.Name(), err)
		}

		bins := nx * (ny/2 + 1)
		for b := 0; b < batch; b++ {
			want := testutil.NaiveR2C2D(src[b*nx*ny:(b+1)*nx*ny], nx, ny)
			testutil.RequireComplexNearlyEqual(t, host[b*bins:(b+1)*bins], want, 1e-9)
		}
		for i := range back {
			back[i] /= nx * ny
		}
		testutil.RequireSliceNearlyEqual(t, back, src, 1e-9)

		_ = fwd.Destroy()
		_ = inv.Destroy()
	}
}

func TestPlanFreedBufferFailsStream(t *testing.T) {
	ctx, s := newStream(t)
	p, _ := NewPlan2D(GoDSP(), 2, 2, R2C, 1)
	_ = p.SetStream(s)
	in, _ := ctx.AllocReal(4)
	out, _ := ctx.AllocComplex(4)

	// Hold the stream so the free lands before execution.
	gate := make(chan struct{})
	_ = s.Enqueue("gate", func() error { <-gate; return nil })
	if err := p.ExecR2C(in, out); err != nil {
		t.Fatal(err)
	}
	_ = in.Free()
	close(gate)

	err := s.Synchronize()
	if !errors.Is(err, ErrInvalidPlan) {
		t.Fatalf("Synchronize error = %v, want ErrInvalidPlan", err)
	}
}
