package sparse

import (
	"fmt"

	"github.com/cwbudde/algo-accel/device"
)

var (
	// ErrInvalidValue is returned for inconsistent descriptor sizes and for
	// out-of-range or repeated sparse indices.
	ErrInvalidValue = fmt.Errorf("sparse: invalid value: %w", device.ErrInvalidValue)

	// ErrNotInitialized is returned when a handle or descriptor is used
	// after Destroy, or a handle has no stream.
	ErrNotInitialized = fmt.Errorf("sparse: not initialized: %w", device.ErrInvalidHandle)
)
