package transform

import (
	"fmt"

	"github.com/cwbudde/algo-accel/device"
)

// Sentinel errors. Each wraps the device status it maps to, so
// device.StatusOf classifies them.
var (
	// ErrInvalidSize is returned for non-positive dimensions or buffers
	// whose length does not match the plan's packed layout.
	ErrInvalidSize = fmt.Errorf("transform: invalid size: %w", device.ErrInvalidValue)

	// ErrInvalidPlan is returned when a plan is used after Destroy, without
	// a bound stream, or in the wrong direction.
	ErrInvalidPlan = fmt.Errorf("transform: invalid plan: %w", device.ErrInvalidHandle)

	// ErrExecFailed is returned when the engine fails during execution.
	ErrExecFailed = fmt.Errorf("transform: execution failed: %w", device.ErrExecutionFailed)

	// ErrUnknownEngine is returned by Lookup for unregistered names.
	ErrUnknownEngine = fmt.Errorf("transform: unknown engine: %w", device.ErrNotSupported)
)
