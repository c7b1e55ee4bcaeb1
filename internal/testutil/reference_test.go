package testutil

import (
	"math"
	"testing"
)

func TestNaiveR2C2DImpulse(t *testing.T) {
	got := NaiveR2C2D(Impulse(12, 0), 3, 4)
	if len(got) != 3*3 {
		t.Fatalf("len = %d, want 9", len(got))
	}
	want := make([]complex128, len(got))
	for i := range want {
		want[i] = 1
	}
	RequireComplexNearlyEqual(t, got, want, 1e-12)
}

func TestNaiveR2C2DSum(t *testing.T) {
	src := Sequential(25)
	got := NaiveR2C2D(src, 5, 5)
	if math.Abs(real(got[0])-325) > 1e-9 || math.Abs(imag(got[0])) > 1e-9 {
		t.Fatalf("DC = %v, want 325", got[0])
	}
}

func TestNaiveRoundTripScalesBySize(t *testing.T) {
	for _, dims := range [][2]int{{5, 5}, {4, 6}, {3, 1}, {1, 7}, {2, 2}} {
		nx, ny := dims[0], dims[1]
		src := DeterministicNoise(int64(nx*ny), 1, nx*ny)
		back := NaiveC2R2D(NaiveR2C2D(src, nx, ny), nx, ny)
		want := make([]float64, len(src))
		for i, v := range src {
			want[i] = v * float64(nx*ny)
		}
		RequireSliceNearlyEqual(t, back, want, 1e-9)
	}
}
