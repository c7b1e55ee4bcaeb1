package buffer

import "sync"

// Pool provides sync.Pool-based Buffer reuse.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a Pool ready for use.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return &Buffer{}
			},
		},
	}
}

// Get returns a zeroed Buffer with the requested length.
// Callers must return it via Put when done.
func (p *Pool) Get(length int) *Buffer {
	b := p.pool.Get().(*Buffer)
	b.Resize(length)
	b.Zero()
	return b
}

// Put returns a Buffer to the pool. The caller must not use it afterwards.
func (p *Pool) Put(b *Buffer) {
	if b == nil {
		return
	}
	p.pool.Put(b)
}

// ComplexPool is the Complex counterpart of Pool.
type ComplexPool struct {
	pool sync.Pool
}

// NewComplexPool returns a ComplexPool ready for use.
func NewComplexPool() *ComplexPool {
	return &ComplexPool{
		pool: sync.Pool{
			New: func() any {
				return &Complex{}
			},
		},
	}
}

// Get returns a zeroed Complex buffer with the requested length.
func (p *ComplexPool) Get(length int) *Complex {
	c := p.pool.Get().(*Complex)
	c.Resize(length)
	return c
}

// Put returns c to the pool.
func (p *ComplexPool) Put(c *Complex) {
	if c == nil {
		return
	}
	p.pool.Put(c)
}
