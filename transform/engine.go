package transform

import (
	"fmt"
	"strings"
)

// Engine creates single-batch 2D real transform plans.
type Engine interface {
	Name() string
	Description() string
	NewRealPlan2D(nx, ny int) (RealPlan2D, error)
}

// RealPlan2D transforms one nx×ny real grid. Implementations own scratch
// memory and must not be used concurrently.
type RealPlan2D interface {
	// Forward computes the unnormalized R2C transform of src (nx*ny
	// samples) into dst (nx*(ny/2+1) bins).
	Forward(dst []complex128, src []float64) error

	// Inverse computes the unnormalized C2R transform of src into dst.
	// src is read as the non-redundant half of a Hermitian spectrum; the
	// imaginary parts of self-conjugate bins do not contribute.
	Inverse(dst []float64, src []complex128) error

	Close() error
}

// Default is the engine used when none is configured.
const Default = "algofft"

// Engines lists every available engine.
func Engines() []Engine {
	return []Engine{AlgoFFT(), GoDSP()}
}

// Lookup resolves an engine by name. The empty name selects Default.
func Lookup(name string) (Engine, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		n = Default
	}
	switch n {
	case "algofft", "algo-fft":
		return AlgoFFT(), nil
	case "godsp", "go-dsp":
		return GoDSP(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}

func checkPlanLens(nx, ny, samples, bins int) error {
	if samples != nx*ny {
		return fmt.Errorf("%w: %d samples for a %dx%d grid", ErrInvalidSize, samples, nx, ny)
	}
	if bins != nx*(ny/2+1) {
		return fmt.Errorf("%w: %d bins for a %dx%d grid, want %d", ErrInvalidSize, bins, nx, ny, nx*(ny/2+1))
	}
	return nil
}
