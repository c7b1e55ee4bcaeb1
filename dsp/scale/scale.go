package scale

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-accel/device"
)

// DefaultBlockDim is the edge of the square thread block used by the
// launch helpers when none is configured.
const DefaultBlockDim = 16

// ErrInvalidShape is returned for non-positive extents or buffers whose
// length does not match Width*Height*batch.
var ErrInvalidShape = fmt.Errorf("scale: invalid shape: %w", device.ErrInvalidValue)

// BandMask scales the elements of a Width×Height complex plane selected by
// two conditions: the corner block row < min(Height, RThresh) and
// col < min(Width, RThresh), or the trailing band Height-row <= RThresh.
type BandMask struct {
	Width   int
	Height  int
	RThresh int
	Scale   float64
}

// Contains reports whether the element at (row, col) is scaled.
func (m BandMask) Contains(row, col int) bool {
	if row < 0 || col < 0 || row >= m.Height || col >= m.Width {
		return false
	}
	if col < min(m.Width, m.RThresh) && row < min(m.Height, m.RThresh) {
		return true
	}
	return m.Height-row <= m.RThresh
}

// span returns the half-open column range scaled in row.
func (m BandMask) span(row int) (lo, hi int) {
	if row < 0 || row >= m.Height {
		return 0, 0
	}
	if m.Height-row <= m.RThresh {
		return 0, m.Width
	}
	if row < min(m.Height, m.RThresh) {
		return 0, max(0, min(m.Width, m.RThresh))
	}
	return 0, 0
}

func (m BandMask) validate() error {
	if m.Width < 1 || m.Height < 1 {
		return fmt.Errorf("%w: mask %dx%d", ErrInvalidShape, m.Width, m.Height)
	}
	return nil
}

type bandMaskKernel struct {
	mask BandMask
	data []float64
}

func (k bandMaskKernel) RunBlock(b device.Block) {
	m := k.mask
	plane := m.Width * m.Height
	z0, z1 := b.Layers()
	y0, y1 := b.Rows()
	x0, x1 := b.Cols()
	for z := z0; z < z1; z++ {
		if 2*(z+1)*plane > len(k.data) {
			return
		}
		for row := y0; row < min(y1, m.Height); row++ {
			lo, hi := m.span(row)
			lo, hi = max(lo, x0), min(hi, x1)
			if lo >= hi {
				continue
			}
			off := z*plane + row*m.Width
			run := k.data[2*(off+lo) : 2*(off+hi)]
			vecmath.ScaleBlock(run, run, m.Scale)
		}
	}
}

// Normalize scales every element of a Width×Height real plane by Scale.
type Normalize struct {
	Width  int
	Height int
	Scale  float64
}

func (n Normalize) validate() error {
	if n.Width < 1 || n.Height < 1 {
		return fmt.Errorf("%w: plane %dx%d", ErrInvalidShape, n.Width, n.Height)
	}
	return nil
}

type normalizeKernel struct {
	norm Normalize
	data []float64
}

func (k normalizeKernel) RunBlock(b device.Block) {
	n := k.norm
	plane := n.Width * n.Height
	z0, z1 := b.Layers()
	y0, y1 := b.Rows()
	x0, x1 := b.Cols()
	lo, hi := x0, min(x1, n.Width)
	if lo >= hi {
		return
	}
	for z := z0; z < z1; z++ {
		if (z+1)*plane > len(k.data) {
			return
		}
		for row := y0; row < min(y1, n.Height); row++ {
			off := z*plane + row*n.Width
			run := k.data[off+lo : off+hi]
			vecmath.ScaleBlock(run, run, n.Scale)
		}
	}
}

// GridFor returns the launch shape covering a width×height plane per batch
// with square blocks of edge blockDim.
func GridFor(width, height, batch, blockDim int) (grid, block device.Dim3) {
	if blockDim < 1 {
		blockDim = DefaultBlockDim
	}
	grid = device.Dim3{
		X: (width + blockDim - 1) / blockDim,
		Y: (height + blockDim - 1) / blockDim,
		Z: batch,
	}
	block = device.Dim3{X: blockDim, Y: blockDim, Z: 1}
	return grid, block
}

// LaunchBandMask enqueues m over batch planes of buf.
func LaunchBandMask(s *device.Stream, buf *device.ComplexBuffer, m BandMask, batch, blockDim int) error {
	if err := m.validate(); err != nil {
		return err
	}
	if buf == nil || buf.Data() == nil {
		return fmt.Errorf("scale: band mask on freed buffer: %w", device.ErrInvalidHandle)
	}
	if err := checkLen(buf.Len(), m.Width*m.Height, batch); err != nil {
		return err
	}
	grid, block := GridFor(m.Width, m.Height, batch, blockDim)
	return s.Launch("band mask", grid, block, bandMaskKernel{mask: m, data: buf.Data()})
}

// LaunchNormalize enqueues n over batch planes of buf.
func LaunchNormalize(s *device.Stream, buf *device.RealBuffer, n Normalize, batch, blockDim int) error {
	if err := n.validate(); err != nil {
		return err
	}
	if buf == nil || buf.Data() == nil {
		return fmt.Errorf("scale: normalize on freed buffer: %w", device.ErrInvalidHandle)
	}
	if err := checkLen(buf.Len(), n.Width*n.Height, batch); err != nil {
		return err
	}
	grid, block := GridFor(n.Width, n.Height, batch, blockDim)
	return s.Launch("normalize", grid, block, normalizeKernel{norm: n, data: buf.Data()})
}

func checkLen(have, plane, batch int) error {
	if batch < 1 {
		return fmt.Errorf("%w: batch %d", ErrInvalidShape, batch)
	}
	if have != plane*batch {
		return fmt.Errorf("%w: buffer holds %d elements, want %d", ErrInvalidShape, have, plane*batch)
	}
	return nil
}
