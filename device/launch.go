package device

import (
	"fmt"
	"sync"
)

// MaxThreadsPerBlock bounds blockDim.X*blockDim.Y*blockDim.Z.
const MaxThreadsPerBlock = 1024

// Dim3 is a grid or block extent.
type Dim3 struct {
	X, Y, Z int
}

// Count returns X*Y*Z.
func (d Dim3) Count() int {
	return d.X * d.Y * d.Z
}

func (d Dim3) valid() bool {
	return d.X > 0 && d.Y > 0 && d.Z > 0
}

// Block identifies one block of a launch: its index in the grid and the
// block extent. Global thread coordinates are Idx*Dim + thread offset.
type Block struct {
	Idx Dim3
	Dim Dim3
}

// Cols returns the half-open range of global x coordinates in the block.
func (b Block) Cols() (lo, hi int) {
	lo = b.Idx.X * b.Dim.X
	return lo, lo + b.Dim.X
}

// Rows returns the half-open range of global y coordinates in the block.
func (b Block) Rows() (lo, hi int) {
	lo = b.Idx.Y * b.Dim.Y
	return lo, lo + b.Dim.Y
}

// Layers returns the half-open range of global z coordinates in the block.
func (b Block) Layers() (lo, hi int) {
	lo = b.Idx.Z * b.Dim.Z
	return lo, lo + b.Dim.Z
}

// Kernel is executed once per block of a launch. Blocks of one launch run
// concurrently and must not depend on each other.
type Kernel interface {
	RunBlock(b Block)
}

// ThreadFunc adapts a per-thread function to [Kernel]. It is called with
// global (x, y, z) coordinates for every thread of every block, including
// threads beyond the data extent; bounds checks belong to the function.
type ThreadFunc func(x, y, z int)

// RunBlock calls f for every thread of b.
func (f ThreadFunc) RunBlock(b Block) {
	z0, z1 := b.Layers()
	y0, y1 := b.Rows()
	x0, x1 := b.Cols()
	for z := z0; z < z1; z++ {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				f(x, y, z)
			}
		}
	}
}

// Launch schedules k over grid blocks of the given block extent. The
// launch completes on the stream once every block has run.
func (s *Stream) Launch(name string, grid, block Dim3, k Kernel) error {
	if k == nil {
		return fmt.Errorf("device: launch %s: nil kernel: %w", name, ErrInvalidValue)
	}
	if !grid.valid() || !block.valid() {
		return fmt.Errorf("device: launch %s: invalid configuration grid=%v block=%v: %w", name, grid, block, ErrInvalidValue)
	}
	if block.Count() > MaxThreadsPerBlock {
		return fmt.Errorf("device: launch %s: %d threads per block exceeds %d: %w", name, block.Count(), MaxThreadsPerBlock, ErrInvalidValue)
	}
	workers := s.ctx.workers
	return s.Enqueue("launch "+name, func() error {
		return runGrid(workers, grid, block, k)
	})
}

// runGrid fans the blocks of grid out to a fixed pool of workers and waits
// for all of them.
func runGrid(workers int, grid, block Dim3, k Kernel) error {
	total := grid.Count()
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan Dim3, total)
	for z := 0; z < grid.Z; z++ {
		for y := 0; y < grid.Y; y++ {
			for x := 0; x < grid.X; x++ {
				jobs <- Dim3{X: x, Y: y, Z: z}
			}
		}
	}
	close(jobs)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := runBlock(k, Block{Idx: idx, Dim: block}); err != nil {
					errOnce.Do(func() { firstErr = err })
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}

func runBlock(k Kernel, b Block) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("block %v: %w", b.Idx, executionError(rec))
		}
	}()
	k.RunBlock(b)
	return nil
}
