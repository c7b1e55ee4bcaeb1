package testutil

import (
	"math"
	"math/cmplx"
)

// NaiveR2C2D is the O(N²) reference for an unnormalized row-major 2D
// real-to-complex transform. It returns nx*(ny/2+1) packed bins.
func NaiveR2C2D(src []float64, nx, ny int) []complex128 {
	nyh := ny/2 + 1
	out := make([]complex128, nx*nyh)
	for u := 0; u < nx; u++ {
		for k := 0; k < nyh; k++ {
			var sum complex128
			for x := 0; x < nx; x++ {
				for y := 0; y < ny; y++ {
					phase := -2 * math.Pi * (float64(u*x)/float64(nx) + float64(k*y)/float64(ny))
					sum += complex(src[x*ny+y], 0) * cmplx.Exp(complex(0, phase))
				}
			}
			out[u*nyh+k] = sum
		}
	}
	return out
}

// NaiveC2R2D is the O(N²) reference for the unnormalized inverse of
// NaiveR2C2D. Bins past ny/2 are taken as the conjugate mirror of the
// packed half, and only the real part of the result is kept.
func NaiveC2R2D(src []complex128, nx, ny int) []float64 {
	nyh := ny/2 + 1
	out := make([]float64, nx*ny)
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			var sum float64
			for u := 0; u < nx; u++ {
				for k := 0; k < nyh; k++ {
					w := 2.0
					if k == 0 || (ny%2 == 0 && k == ny/2) {
						w = 1
					}
					phase := 2 * math.Pi * (float64(u*x)/float64(nx) + float64(k*y)/float64(ny))
					sum += w * real(src[u*nyh+k]*cmplx.Exp(complex(0, phase)))
				}
			}
			out[x*ny+y] = sum
		}
	}
	return out
}
