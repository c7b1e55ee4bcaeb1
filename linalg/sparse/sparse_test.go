package sparse

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-accel/device"
	"github.com/cwbudde/algo-accel/internal/testutil"
)

type fixture struct {
	ctx    *device.Context
	stream *device.Stream
	handle *Handle
}

func newFixture(t *testing.T) *fixture {
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
	h, err := NewHandle(ctx)
	if err != nil {
		t.Fatalf("NewHandle error = %v", err)
	}
	if err := h.SetStream(s); err != nil {
		t.Fatalf("SetStream error = %v", err)
	}
	return &fixture{ctx: ctx, stream: s, handle: h}
}

func (f *fixture) vectors(t *testing.T, size int, idx []int32, xv, yv []float64, base IndexBase) (*SpVec, *DnVec, *device.RealBuffer, *device.RealBuffer) {
	t.Helper()
	ib, _ := f.ctx.AllocIndex(len(idx))
	xb, _ := f.ctx.AllocReal(len(xv))
	yb, _ := f.ctx.AllocReal(len(yv))
	if err := f.stream.CopyIndexToDevice(ib, idx); err != nil {
		t.Fatal(err)
	}
	if err := f.stream.CopyRealToDevice(xb, xv); err != nil {
		t.Fatal(err)
	}
	if err := f.stream.CopyRealToDevice(yb, yv); err != nil {
		t.Fatal(err)
	}
	x, err := NewSpVec(size, len(idx), ib, xb, base)
	if err != nil {
		t.Fatalf("NewSpVec error = %v", err)
	}
	y, err := NewDnVec(size, yb)
	if err != nil {
		t.Fatalf("NewDnVec error = %v", err)
	}
	return x, y, xb, yb
}

func (f *fixture) download(t *testing.T, xb, yb *device.RealBuffer) (xv, yv []float64, err error) {
	t.Helper()
	xv = make([]float64, xb.Len())
	yv = make([]float64, yb.Len())
	if err := f.stream.CopyRealToHost(xv, xb); err != nil {
		t.Fatal(err)
	}
	if err := f.stream.CopyRealToHost(yv, yb); err != nil {
		t.Fatal(err)
	}
	return xv, yv, f.stream.Synchronize()
}

func TestRotExample(t *testing.T) {
	f := newFixture(t)
	x, y, xb, yb := f.vectors(t, 8,
		[]int32{0, 3, 4, 7},
		[]float64{1, 2, 3, 4},
		[]float64{1, 2, 3, 4, 5, 6, 7, 8},
		IndexBaseZero)

	if err := f.handle.Rot(0.5, 0.866025, x, y); err != nil {
		t.Fatalf("Rot error = %v", err)
	}
	xv, yv, err := f.download(t, xb, yb)
	if err != nil {
		t.Fatalf("Synchronize error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, xv, []float64{1.366025, 4.464100, 5.830125, 8.928200}, 1e-3)
	testutil.RequireSliceNearlyEqual(t, yv, []float64{-0.366025, 2, 3, 0.267950, -0.098075, 6, 7, 0.535900}, 1e-3)
}

func TestRotOneBased(t *testing.T) {
	f := newFixture(t)
	x, y, xb, yb := f.vectors(t, 3,
		[]int32{1, 3},
		[]float64{1, 1},
		[]float64{10, 20, 30},
		IndexBaseOne)

	// c=0, s=1 swaps x into y with a sign change.
	if err := f.handle.Rot(0, 1, x, y); err != nil {
		t.Fatal(err)
	}
	xv, yv, err := f.download(t, xb, yb)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, xv, []float64{10, 30}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, yv, []float64{-1, 20, -1}, 1e-12)
}

func TestRotIdentityLeavesVectors(t *testing.T) {
	f := newFixture(t)
	ys := testutil.DeterministicNoise(9, 1, 16)
	x, y, xb, yb := f.vectors(t, 16, []int32{2, 5, 11}, []float64{0.1, 0.2, 0.3}, ys, IndexBaseZero)
	if err := f.handle.Rot(1, 0, x, y); err != nil {
		t.Fatal(err)
	}
	xv, yv, err := f.download(t, xb, yb)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, xv, []float64{0.1, 0.2, 0.3}, 0)
	testutil.RequireSliceNearlyEqual(t, yv, ys, 0)
}

func TestRotRejectsBadIndicesBeforeWriting(t *testing.T) {
	tests := []struct {
		name string
		idx  []int32
		base IndexBase
	}{
		{"out of range", []int32{0, 8}, IndexBaseZero},
		{"negative", []int32{-1, 2}, IndexBaseZero},
		{"zero with one base", []int32{0, 2}, IndexBaseOne},
		{"duplicate", []int32{3, 3}, IndexBaseZero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ys := []float64{1, 2, 3, 4, 5, 6, 7, 8}
			x, y, xb, yb := f.vectors(t, 8, tt.idx, []float64{1, 2}, ys, tt.base)
			if err := f.handle.Rot(0.5, 0.5, x, y); err != nil {
				t.Fatalf("Rot issue error = %v", err)
			}
			if err := f.stream.Synchronize(); !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("Synchronize error = %v, want ErrInvalidValue", err)
			}
			if device.StatusOf(f.stream.Err()) != device.StatusInvalidValue {
				t.Fatalf("status = %v, want %v", device.StatusOf(f.stream.Err()), device.StatusInvalidValue)
			}
			if xb.Data()[0] != 1 || yb.Data()[0] != 1 {
				t.Fatalf("buffers modified after rejected rot: x=%v y=%v", xb.Data(), yb.Data())
			}
		})
	}
}

func TestDescriptorValidation(t *testing.T) {
	f := newFixture(t)
	ib, _ := f.ctx.AllocIndex(2)
	xb, _ := f.ctx.AllocReal(2)
	yb, _ := f.ctx.AllocReal(4)

	if _, err := NewSpVec(1, 2, ib, xb, IndexBaseZero); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("nnz > size error = %v, want ErrInvalidValue", err)
	}
	if _, err := NewSpVec(4, 3, ib, xb, IndexBaseZero); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("buffer length error = %v, want ErrInvalidValue", err)
	}
	if _, err := NewSpVec(4, 2, ib, xb, IndexBase(5)); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("bad base error = %v, want ErrInvalidValue", err)
	}
	if _, err := NewDnVec(3, yb); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("dense size error = %v, want ErrInvalidValue", err)
	}

	x, _ := NewSpVec(5, 2, ib, xb, IndexBaseZero)
	y, _ := NewDnVec(4, yb)
	if err := f.handle.Rot(1, 0, x, y); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("size mismatch error = %v, want ErrInvalidValue", err)
	}

	if err := y.Destroy(); err != nil {
		t.Fatal(err)
	}
	if err := y.Destroy(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("double Destroy error = %v, want ErrNotInitialized", err)
	}
	if yb.Data() == nil {
		t.Fatal("destroying a descriptor freed its buffer")
	}
}

func TestHandleLifecycle(t *testing.T) {
	if _, err := NewHandle(nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("NewHandle(nil) error = %v, want ErrNotInitialized", err)
	}
	f := newFixture(t)
	fresh, _ := NewHandle(f.ctx)
	x, y, _, _ := f.vectors(t, 2, []int32{0}, []float64{1}, []float64{1, 2}, IndexBaseZero)
	if err := fresh.Rot(1, 0, x, y); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Rot without stream error = %v, want ErrNotInitialized", err)
	}
	if err := f.handle.Destroy(); err != nil {
		t.Fatal(err)
	}
	if err := f.handle.Rot(1, 0, x, y); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Rot after Destroy error = %v, want ErrNotInitialized", err)
	}
	if err := f.handle.Destroy(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("double Destroy error = %v, want ErrNotInitialized", err)
	}
}
