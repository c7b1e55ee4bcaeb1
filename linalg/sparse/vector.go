package sparse

import (
	"fmt"

	"github.com/cwbudde/algo-accel/device"
)

// IndexBase is the value of the first index in a sparse index buffer.
type IndexBase int

const (
	IndexBaseZero IndexBase = iota
	IndexBaseOne
)

func (b IndexBase) String() string {
	switch b {
	case IndexBaseZero:
		return "zero"
	case IndexBaseOne:
		return "one"
	default:
		return fmt.Sprintf("IndexBase(%d)", int(b))
	}
}

// SpVec describes a sparse vector of logical length Size with NNZ stored
// entries.
type SpVec struct {
	size      int
	indices   *device.IndexBuffer
	values    *device.RealBuffer
	base      IndexBase
	destroyed bool
}

// NewSpVec creates a sparse vector descriptor. indices and values must
// both hold nnz elements.
func NewSpVec(size, nnz int, indices *device.IndexBuffer, values *device.RealBuffer, base IndexBase) (*SpVec, error) {
	if size < 0 || nnz < 0 || nnz > size {
		return nil, fmt.Errorf("%w: size %d nnz %d", ErrInvalidValue, size, nnz)
	}
	if base != IndexBaseZero && base != IndexBaseOne {
		return nil, fmt.Errorf("%w: index base %v", ErrInvalidValue, base)
	}
	if indices == nil || values == nil || indices.Len() != nnz || values.Len() != nnz {
		return nil, fmt.Errorf("%w: index and value buffers must hold %d elements", ErrInvalidValue, nnz)
	}
	return &SpVec{size: size, indices: indices, values: values, base: base}, nil
}

// Size is the logical vector length.
func (v *SpVec) Size() int { return v.size }

// NNZ is the number of stored entries.
func (v *SpVec) NNZ() int { return v.values.Len() }

// Base reports the index base.
func (v *SpVec) Base() IndexBase { return v.base }

// Destroy releases the descriptor. The buffers stay allocated.
func (v *SpVec) Destroy() error {
	if v == nil || v.destroyed {
		return fmt.Errorf("%w: sparse vector", ErrNotInitialized)
	}
	v.destroyed = true
	return nil
}

// DnVec describes a dense vector.
type DnVec struct {
	values    *device.RealBuffer
	destroyed bool
}

// NewDnVec creates a dense vector descriptor over size elements of values.
func NewDnVec(size int, values *device.RealBuffer) (*DnVec, error) {
	if values == nil || size < 0 || values.Len() != size {
		return nil, fmt.Errorf("%w: dense vector of size %d", ErrInvalidValue, size)
	}
	return &DnVec{values: values}, nil
}

// Size is the vector length.
func (v *DnVec) Size() int { return v.values.Len() }

// Destroy releases the descriptor. The buffer stays allocated.
func (v *DnVec) Destroy() error {
	if v == nil || v.destroyed {
		return fmt.Errorf("%w: dense vector", ErrNotInitialized)
	}
	v.destroyed = true
	return nil
}

// resolve converts stored indices to zero-based positions, rejecting any
// outside [0, size) and any repeated position.
func resolve(dst []int, idx []int32, base IndexBase, size int) error {
	seen := make(map[int]struct{}, len(idx))
	for i, raw := range idx {
		j := int(raw) - int(base)
		if j < 0 || j >= size {
			return fmt.Errorf("%w: index %d at position %d out of range for size %d (base %v)", ErrInvalidValue, raw, i, size, base)
		}
		if _, dup := seen[j]; dup {
			return fmt.Errorf("%w: index %d repeated at position %d", ErrInvalidValue, raw, i)
		}
		seen[j] = struct{}{}
		dst[i] = j
	}
	return nil
}
