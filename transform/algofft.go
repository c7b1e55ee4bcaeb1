package transform

import (
	"fmt"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
)

type algofftEngine struct{}

// AlgoFFT returns the engine backed by algo-fft complex plans.
func AlgoFFT() Engine {
	return algofftEngine{}
}

func (algofftEngine) Name() string { return "algofft" }

func (algofftEngine) Description() string {
	return "github.com/MeKo-Christian/algo-fft row/column decomposition"
}

func (algofftEngine) NewRealPlan2D(nx, ny int) (RealPlan2D, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, nx, ny)
	}
	rows, err := newAxis(ny)
	if err != nil {
		return nil, err
	}
	cols, err := newAxis(nx)
	if err != nil {
		return nil, err
	}
	nyh := ny/2 + 1
	return &algofftPlan{
		nx:     nx,
		ny:     ny,
		nyh:    nyh,
		rows:   rows,
		cols:   cols,
		rowIn:  make([]complex128, ny),
		rowOut: make([]complex128, ny),
		colIn:  make([]complex128, nx),
		colOut: make([]complex128, nx),
		work:   make([]complex128, nx*nyh),
	}, nil
}

// axis is a 1D complex transform of length n. Length 1 is the identity.
type axis struct {
	n    int
	plan *algofft.Plan[complex128]
}

func newAxis(n int) (*axis, error) {
	if n == 1 {
		return &axis{n: 1}, nil
	}
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("transform: algofft plan of length %d: %w", n, err)
	}
	return &axis{n: n, plan: plan}, nil
}

func (a *axis) forward(dst, src []complex128) error {
	if a.plan == nil {
		copy(dst, src)
		return nil
	}
	return a.plan.Forward(dst, src)
}

// inverse is unnormalized; algo-fft scales its inverse by 1/n.
func (a *axis) inverse(dst, src []complex128) error {
	if a.plan == nil {
		copy(dst, src)
		return nil
	}
	if err := a.plan.Inverse(dst, src); err != nil {
		return err
	}
	n := complex(float64(a.n), 0)
	for i := range dst {
		dst[i] *= n
	}
	return nil
}

type algofftPlan struct {
	nx, ny, nyh int
	rows, cols  *axis

	rowIn, rowOut []complex128
	colIn, colOut []complex128
	work          []complex128
}

func (p *algofftPlan) Forward(dst []complex128, src []float64) error {
	if err := checkPlanLens(p.nx, p.ny, len(src), len(dst)); err != nil {
		return err
	}

	for x := 0; x < p.nx; x++ {
		row := src[x*p.ny : (x+1)*p.ny]
		for y, v := range row {
			p.rowIn[y] = complex(v, 0)
		}
		if err := p.rows.forward(p.rowOut, p.rowIn); err != nil {
			return fmt.Errorf("transform: row %d forward: %w", x, err)
		}
		copy(dst[x*p.nyh:(x+1)*p.nyh], p.rowOut[:p.nyh])
	}

	for k := 0; k < p.nyh; k++ {
		for u := 0; u < p.nx; u++ {
			p.colIn[u] = dst[u*p.nyh+k]
		}
		if err := p.cols.forward(p.colOut, p.colIn); err != nil {
			return fmt.Errorf("transform: column %d forward: %w", k, err)
		}
		for u := 0; u < p.nx; u++ {
			dst[u*p.nyh+k] = p.colOut[u]
		}
	}
	return nil
}

func (p *algofftPlan) Inverse(dst []float64, src []complex128) error {
	if err := checkPlanLens(p.nx, p.ny, len(dst), len(src)); err != nil {
		return err
	}

	for k := 0; k < p.nyh; k++ {
		for u := 0; u < p.nx; u++ {
			p.colIn[u] = src[u*p.nyh+k]
		}
		if err := p.cols.inverse(p.colOut, p.colIn); err != nil {
			return fmt.Errorf("transform: column %d inverse: %w", k, err)
		}
		for u := 0; u < p.nx; u++ {
			p.work[u*p.nyh+k] = p.colOut[u]
		}
	}

	for x := 0; x < p.nx; x++ {
		half := p.work[x*p.nyh : (x+1)*p.nyh]
		copy(p.rowIn, half)
		for k := p.nyh; k < p.ny; k++ {
			p.rowIn[k] = cmplx.Conj(half[p.ny-k])
		}
		if err := p.rows.inverse(p.rowOut, p.rowIn); err != nil {
			return fmt.Errorf("transform: row %d inverse: %w", x, err)
		}
		out := dst[x*p.ny : (x+1)*p.ny]
		for y := range out {
			out[y] = real(p.rowOut[y])
		}
	}
	return nil
}

func (p *algofftPlan) Close() error {
	p.rows, p.cols = nil, nil
	p.work = nil
	return nil
}
