package sparse

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"

	"github.com/cwbudde/algo-accel/device"
)

// Handle issues sparse operations on a stream of one device context.
type Handle struct {
	ctx       *device.Context
	stream    *device.Stream
	destroyed bool
}

// NewHandle creates a handle on ctx. A stream must be bound with SetStream
// before any operation.
func NewHandle(ctx *device.Context) (*Handle, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrNotInitialized)
	}
	return &Handle{ctx: ctx}, nil
}

// SetStream binds the stream later operations are issued on.
func (h *Handle) SetStream(s *device.Stream) error {
	if h.destroyed {
		return fmt.Errorf("%w: handle destroyed", ErrNotInitialized)
	}
	if s == nil {
		return fmt.Errorf("%w: nil stream", ErrInvalidValue)
	}
	h.stream = s
	return nil
}

// Destroy releases the handle. Destroying twice returns ErrNotInitialized.
func (h *Handle) Destroy() error {
	if h.destroyed {
		return fmt.Errorf("%w: handle destroyed", ErrNotInitialized)
	}
	h.destroyed = true
	h.stream = nil
	return nil
}

// Rot applies the Givens rotation (c, s) to the stored entries of x and
// the matching entries of y:
//
//	x[i] = c*x[i] + s*y[idx[i]]
//	y[idx[i]] = c*y[idx[i]] - s*x[i]
//
// Entries of y without a stored counterpart in x are left untouched.
// Indices are checked when the operation runs; an invalid index fails the
// stream before anything is written.
func (h *Handle) Rot(c, s float64, x *SpVec, y *DnVec) error {
	switch {
	case h.destroyed:
		return fmt.Errorf("%w: handle destroyed", ErrNotInitialized)
	case h.stream == nil:
		return fmt.Errorf("%w: no stream bound", ErrNotInitialized)
	case x == nil || x.destroyed || y == nil || y.destroyed:
		return fmt.Errorf("%w: rot descriptor", ErrNotInitialized)
	case x.size != y.Size():
		return fmt.Errorf("%w: sparse size %d, dense size %d", ErrInvalidValue, x.size, y.Size())
	}

	size, base := x.size, x.base
	idxBuf, xBuf, yBuf := x.indices, x.values, y.values
	return h.stream.Enqueue("rot", func() error {
		idx, xv, yv := idxBuf.Data(), xBuf.Data(), yBuf.Data()
		if idx == nil || xv == nil || yv == nil {
			return fmt.Errorf("%w: rot buffer freed before execution", ErrNotInitialized)
		}
		nnz := len(xv)
		if nnz == 0 {
			return nil
		}
		pos := make([]int, nnz)
		if err := resolve(pos, idx, base, size); err != nil {
			return err
		}

		gathered := make([]float64, nnz)
		for i, j := range pos {
			gathered[i] = yv[j]
		}
		blas64.Rot(
			blas64.Vector{N: nnz, Data: xv, Inc: 1},
			blas64.Vector{N: nnz, Data: gathered, Inc: 1},
			c, s,
		)
		for i, j := range pos {
			yv[j] = gathered[i]
		}
		return nil
	})
}
