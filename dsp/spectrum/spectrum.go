package spectrum

import (
	"fmt"
	"math/cmplx"
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func split(in []complex128) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * len(in)
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	}
	buf.data = buf.data[:need]
	re, im = buf.data[:len(in)], buf.data[len(in):]
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}
	return re, im, buf
}

// Magnitude returns |X[k]| for each bin.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	re, im, buf := split(in)
	vecmath.Magnitude(out, re, im)
	scratchPool.Put(buf)
	return out
}

// Power returns |X[k]|^2 for each bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	re, im, buf := split(in)
	vecmath.Power(out, re, im)
	scratchPool.Put(buf)
	return out
}

// Phase returns arg(X[k]) in radians for each bin.
func Phase(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	for i, c := range in {
		out[i] = cmplx.Phase(c)
	}
	return out
}

// PackedEnergy returns Σ|x|² of the nx×ny real grid whose unnormalized
// forward transform is the packed half spectrum bins (nx*(ny/2+1) values).
// Bins with a mirrored counterpart in the omitted half count twice.
func PackedEnergy(bins []complex128, nx, ny int) (float64, error) {
	nyh := ny/2 + 1
	if nx < 1 || ny < 1 || len(bins) != nx*nyh {
		return 0, fmt.Errorf("spectrum: %d bins for a %dx%d grid, want %d", len(bins), nx, ny, nx*nyh)
	}
	pow := Power(bins)
	sum := 0.0
	for u := 0; u < nx; u++ {
		for k := 0; k < nyh; k++ {
			w := 2.0
			if k == 0 || (ny%2 == 0 && k == ny/2) {
				w = 1
			}
			sum += w * pow[u*nyh+k]
		}
	}
	return sum / float64(nx*ny), nil
}
