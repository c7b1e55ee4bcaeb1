package scale

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-accel/device"
	"github.com/cwbudde/algo-accel/internal/testutil"
)

func newStream(t *testing.T) (*device.Context, *device.Stream) {
	t.Helper()
	ctx, err := device.Open(device.Host, device.WithWorkers(3))
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

func TestBandMaskContains(t *testing.T) {
	m := BandMask{Width: 5, Height: 3, RThresh: 1, Scale: 0.7}
	var got []int
	for row := 0; row < 4; row++ {
		for col := 0; col < 6; col++ {
			if m.Contains(row, col) {
				got = append(got, row*m.Width+col)
			}
		}
	}
	want := []int{0, 10, 11, 12, 13, 14}
	if len(got) != len(want) {
		t.Fatalf("scaled indices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scaled indices = %v, want %v", got, want)
		}
	}
}

func TestBandMaskWideThreshold(t *testing.T) {
	m := BandMask{Width: 4, Height: 4, RThresh: 2}
	tests := []struct {
		row, col int
		want     bool
	}{
		{0, 0, true},
		{1, 1, true},
		{1, 2, false},
		{0, 3, false},
		{2, 3, true},
		{3, 0, true},
		{4, 0, false},
		{3, 4, false},
	}
	for _, tt := range tests {
		if got := m.Contains(tt.row, tt.col); got != tt.want {
			t.Fatalf("Contains(%d, %d) = %v, want %v", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestLaunchBandMaskScenario(t *testing.T) {
	ctx, s := newStream(t)
	const n = 15
	buf, _ := ctx.AllocComplex(n)
	host := make([]complex128, n)
	for i := range host {
		host[i] = complex(float64(i+1), -float64(i+1))
	}
	if err := s.CopyComplexToDevice(buf, host); err != nil {
		t.Fatal(err)
	}
	m := BandMask{Width: 5, Height: 3, RThresh: 1, Scale: 0.7}
	if err := LaunchBandMask(s, buf, m, 1, DefaultBlockDim); err != nil {
		t.Fatalf("LaunchBandMask error = %v", err)
	}
	got := make([]complex128, n)
	if err := s.CopyComplexToHost(got, buf); err != nil {
		t.Fatal(err)
	}
	if err := s.Synchronize(); err != nil {
		t.Fatalf("Synchronize error = %v", err)
	}

	want := make([]complex128, n)
	for i := range want {
		want[i] = host[i]
		if i == 0 || i >= 10 {
			want[i] *= 0.7
		}
	}
	testutil.RequireComplexNearlyEqual(t, got, want, 1e-12)
}

func TestBandMaskUnitScaleIsIdentity(t *testing.T) {
	ctx, s := newStream(t)
	const w, h, batch = 7, 5, 2
	buf, _ := ctx.AllocComplex(w * h * batch)
	src := testutil.DeterministicNoise(5, 1, 2*w*h*batch)
	host := make([]complex128, w*h*batch)
	for i := range host {
		host[i] = complex(src[2*i], src[2*i+1])
	}
	_ = s.CopyComplexToDevice(buf, host)
	if err := LaunchBandMask(s, buf, BandMask{Width: w, Height: h, RThresh: 3, Scale: 1}, batch, 4); err != nil {
		t.Fatal(err)
	}
	got := make([]complex128, len(host))
	_ = s.CopyComplexToHost(got, buf)
	if err := s.Synchronize(); err != nil {
		t.Fatal(err)
	}
	testutil.RequireComplexNearlyEqual(t, got, host, 0)
}

func TestBandMaskBatchesScaledOnce(t *testing.T) {
	ctx, s := newStream(t)
	const w, h, batch = 3, 2, 3
	buf, _ := ctx.AllocComplex(w * h * batch)
	host := make([]complex128, w*h*batch)
	for i := range host {
		host[i] = 1
	}
	_ = s.CopyComplexToDevice(buf, host)
	m := BandMask{Width: w, Height: h, RThresh: 1, Scale: 2}
	if err := LaunchBandMask(s, buf, m, batch, 1); err != nil {
		t.Fatal(err)
	}
	got := make([]complex128, len(host))
	_ = s.CopyComplexToHost(got, buf)
	if err := s.Synchronize(); err != nil {
		t.Fatal(err)
	}
	for z := 0; z < batch; z++ {
		for i := 0; i < w*h; i++ {
			want := complex128(1)
			if m.Contains(i/w, i%w) {
				want = 2
			}
			if got[z*w*h+i] != want {
				t.Fatalf("batch %d element %d = %v, want %v", z, i, got[z*w*h+i], want)
			}
		}
	}
}

// A block much larger than the plane must not write past it.
func TestOversizedGridStaysInBounds(t *testing.T) {
	ctx, s := newStream(t)
	const w, h = 3, 2
	plane, _ := ctx.AllocReal(w * h)
	_ = s.CopyRealToDevice(plane, testutil.Sequential(w*h))
	grid, block := GridFor(w, h, 1, 32)
	if grid != (device.Dim3{X: 1, Y: 1, Z: 1}) {
		t.Fatalf("grid = %v, want 1x1x1", grid)
	}
	if block != (device.Dim3{X: 32, Y: 32, Z: 1}) {
		t.Fatalf("block = %v, want 32x32x1", block)
	}
	if err := LaunchNormalize(s, plane, Normalize{Width: w, Height: h, Scale: 0.5}, 1, 32); err != nil {
		t.Fatal(err)
	}
	got := make([]float64, w*h)
	_ = s.CopyRealToHost(got, plane)
	if err := s.Synchronize(); err != nil {
		t.Fatalf("Synchronize error = %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got, []float64{0.5, 1, 1.5, 2, 2.5, 3}, 1e-15)

	// Band rows past Height are never scaled, even with a threshold that
	// would otherwise select them.
	m := BandMask{Width: w, Height: h, RThresh: 10, Scale: 0}
	for row := h; row < 32; row++ {
		for col := 0; col < 32; col++ {
			if m.Contains(row, col) {
				t.Fatalf("Contains(%d, %d) = true outside %dx%d", row, col, w, h)
			}
		}
	}
}

func TestLaunchNormalizeBatch(t *testing.T) {
	ctx, s := newStream(t)
	const w, h, batch = 5, 5, 2
	buf, _ := ctx.AllocReal(w * h * batch)
	src := testutil.Sequential(w * h * batch)
	_ = s.CopyRealToDevice(buf, src)
	if err := LaunchNormalize(s, buf, Normalize{Width: w, Height: h, Scale: 1.0 / 25}, batch, 2); err != nil {
		t.Fatal(err)
	}
	got := make([]float64, len(src))
	_ = s.CopyRealToHost(got, buf)
	if err := s.Synchronize(); err != nil {
		t.Fatal(err)
	}
	want := make([]float64, len(src))
	for i, v := range src {
		want[i] = v / 25
	}
	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
}

func TestLaunchValidation(t *testing.T) {
	ctx, s := newStream(t)
	buf, _ := ctx.AllocComplex(15)
	if err := LaunchBandMask(s, buf, BandMask{Width: 5, Height: 0}, 1, 16); !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("zero height error = %v, want ErrInvalidShape", err)
	}
	if err := LaunchBandMask(s, buf, BandMask{Width: 5, Height: 4}, 1, 16); !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("length mismatch error = %v, want ErrInvalidShape", err)
	}
	if err := LaunchBandMask(s, buf, BandMask{Width: 5, Height: 3}, 1, 64); !errors.Is(err, device.ErrInvalidValue) {
		t.Fatalf("oversized block error = %v, want ErrInvalidValue", err)
	}
	_ = buf.Free()
	if err := LaunchBandMask(s, buf, BandMask{Width: 5, Height: 3}, 1, 16); !errors.Is(err, device.ErrInvalidHandle) {
		t.Fatalf("freed buffer error = %v, want ErrInvalidHandle", err)
	}
}
