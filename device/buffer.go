package device

import "fmt"

type allocation struct {
	ctx   *Context
	bytes int64
	drop  func()
}

// RealBuffer is device memory holding float64 samples.
type RealBuffer struct {
	alloc *allocation
	data  []float64
}

// ComplexBuffer is device memory holding complex values interleaved as
// (re, im) float64 pairs.
type ComplexBuffer struct {
	alloc *allocation
	data  []float64
}

// IndexBuffer is device memory holding int32 indices.
type IndexBuffer struct {
	alloc *allocation
	data  []int32
}

// AllocReal allocates n real elements.
func (c *Context) AllocReal(n int) (*RealBuffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("device: allocate %d elements: %w", n, ErrInvalidValue)
	}
	b := &RealBuffer{}
	a, err := c.reserve(int64(n)*8, func() { b.data = nil })
	if err != nil {
		return nil, err
	}
	b.alloc = a
	b.data = make([]float64, n)
	c.log.Debug("allocated real buffer", "elements", n)
	return b, nil
}

// AllocComplex allocates n complex elements.
func (c *Context) AllocComplex(n int) (*ComplexBuffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("device: allocate %d elements: %w", n, ErrInvalidValue)
	}
	b := &ComplexBuffer{}
	a, err := c.reserve(int64(n)*16, func() { b.data = nil })
	if err != nil {
		return nil, err
	}
	b.alloc = a
	b.data = make([]float64, 2*n)
	c.log.Debug("allocated complex buffer", "elements", n)
	return b, nil
}

// AllocIndex allocates n int32 indices.
func (c *Context) AllocIndex(n int) (*IndexBuffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("device: allocate %d elements: %w", n, ErrInvalidValue)
	}
	b := &IndexBuffer{}
	a, err := c.reserve(int64(n)*4, func() { b.data = nil })
	if err != nil {
		return nil, err
	}
	b.alloc = a
	b.data = make([]int32, n)
	c.log.Debug("allocated index buffer", "elements", n)
	return b, nil
}

// Len returns the element count, or 0 after Free.
func (b *RealBuffer) Len() int { return len(b.data) }

// Data exposes device memory. Only stream operations may touch it.
func (b *RealBuffer) Data() []float64 { return b.data }

// Free releases the buffer. Freeing twice reports ErrInvalidHandle.
func (b *RealBuffer) Free() error {
	if b == nil || b.alloc == nil {
		return fmt.Errorf("device: free of nil buffer: %w", ErrInvalidHandle)
	}
	return b.alloc.ctx.release(b.alloc)
}

// Len returns the number of complex elements, or 0 after Free.
func (b *ComplexBuffer) Len() int { return len(b.data) / 2 }

// Data exposes interleaved device memory. Only stream operations may touch it.
func (b *ComplexBuffer) Data() []float64 { return b.data }

// Free releases the buffer. Freeing twice reports ErrInvalidHandle.
func (b *ComplexBuffer) Free() error {
	if b == nil || b.alloc == nil {
		return fmt.Errorf("device: free of nil buffer: %w", ErrInvalidHandle)
	}
	return b.alloc.ctx.release(b.alloc)
}

// Len returns the element count, or 0 after Free.
func (b *IndexBuffer) Len() int { return len(b.data) }

// Data exposes device memory. Only stream operations may touch it.
func (b *IndexBuffer) Data() []int32 { return b.data }

// Free releases the buffer. Freeing twice reports ErrInvalidHandle.
func (b *IndexBuffer) Free() error {
	if b == nil || b.alloc == nil {
		return fmt.Errorf("device: free of nil buffer: %w", ErrInvalidHandle)
	}
	return b.alloc.ctx.release(b.alloc)
}
