package transform

import (
	"fmt"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

type godspEngine struct{}

// GoDSP returns the reference engine backed by go-dsp's 2D transforms.
func GoDSP() Engine {
	return godspEngine{}
}

func (godspEngine) Name() string { return "godsp" }

func (godspEngine) Description() string {
	return "github.com/mjibson/go-dsp/fft full-grid reference"
}

func (godspEngine) NewRealPlan2D(nx, ny int) (RealPlan2D, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, nx, ny)
	}
	grid := make([][]float64, nx)
	full := make([][]complex128, nx)
	for x := range grid {
		grid[x] = make([]float64, ny)
		full[x] = make([]complex128, ny)
	}
	return &godspPlan{nx: nx, ny: ny, nyh: ny/2 + 1, grid: grid, full: full}, nil
}

type godspPlan struct {
	nx, ny, nyh int
	grid        [][]float64
	full        [][]complex128
}

func (p *godspPlan) Forward(dst []complex128, src []float64) error {
	if err := checkPlanLens(p.nx, p.ny, len(src), len(dst)); err != nil {
		return err
	}
	for x := range p.grid {
		copy(p.grid[x], src[x*p.ny:(x+1)*p.ny])
	}
	out := fft.FFT2Real(p.grid)
	for u := 0; u < p.nx; u++ {
		copy(dst[u*p.nyh:(u+1)*p.nyh], out[u][:p.nyh])
	}
	return nil
}

// Inverse rebuilds the full spectrum from its Hermitian half,
// X[u][k] = conj(X[-u][-k]) for k >= ny/2+1, and undoes go-dsp's 1/(nx·ny)
// inverse scaling.
func (p *godspPlan) Inverse(dst []float64, src []complex128) error {
	if err := checkPlanLens(p.nx, p.ny, len(dst), len(src)); err != nil {
		return err
	}
	for u := 0; u < p.nx; u++ {
		copy(p.full[u][:p.nyh], src[u*p.nyh:(u+1)*p.nyh])
		mirror := (p.nx - u) % p.nx
		for k := p.nyh; k < p.ny; k++ {
			p.full[u][k] = cmplx.Conj(src[mirror*p.nyh+p.ny-k])
		}
	}
	out := fft.IFFT2(p.full)
	scale := float64(p.nx * p.ny)
	for x := 0; x < p.nx; x++ {
		for y := 0; y < p.ny; y++ {
			dst[x*p.ny+y] = real(out[x][y]) * scale
		}
	}
	return nil
}

func (p *godspPlan) Close() error {
	p.grid, p.full = nil, nil
	return nil
}
