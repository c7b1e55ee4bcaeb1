package buffer

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidSize is returned for negative allocation sizes.
var ErrInvalidSize = errors.New("buffer: invalid size")

// Manager allocates and releases host buffers and tracks how many are
// outstanding.
type Manager struct {
	real    *Pool
	complex *ComplexPool

	mu   sync.Mutex
	live int
}

// NewManager returns a Manager with empty pools.
func NewManager() *Manager {
	return &Manager{
		real:    NewPool(),
		complex: NewComplexPool(),
	}
}

// Allocate returns a zeroed real buffer of size elements.
func (m *Manager) Allocate(size int) (*Buffer, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	b := m.real.Get(size)
	m.add(1)
	return b, nil
}

// AllocateComplex returns a zeroed complex buffer of size elements.
func (m *Manager) AllocateComplex(size int) (*Complex, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	c := m.complex.Get(size)
	m.add(1)
	return c, nil
}

// Release returns b to the manager. Nil is ignored.
func (m *Manager) Release(b *Buffer) {
	if b == nil {
		return
	}
	m.real.Put(b)
	m.add(-1)
}

// ReleaseComplex returns c to the manager. Nil is ignored.
func (m *Manager) ReleaseComplex(c *Complex) {
	if c == nil {
		return
	}
	m.complex.Put(c)
	m.add(-1)
}

// Live reports how many buffers are allocated and not yet released.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

func (m *Manager) add(n int) {
	m.mu.Lock()
	m.live += n
	m.mu.Unlock()
}

// FillSequential writes i+1 at every index i of b.
func FillSequential(b *Buffer) {
	b.FillSequential()
}
