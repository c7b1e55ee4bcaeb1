package device

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Status is a runtime status code attached to device and library failures.
type Status int

const (
	StatusSuccess Status = iota
	StatusInvalidValue
	StatusMemoryAllocation
	StatusInvalidHandle
	StatusLaunchFailure
	StatusNotSupported
	StatusExecutionFailed
	StatusUnknown
)

var statusNames = [...]string{
	StatusSuccess:          "no error",
	StatusInvalidValue:     "invalid argument",
	StatusMemoryAllocation: "out of memory",
	StatusInvalidHandle:    "invalid resource handle",
	StatusLaunchFailure:    "unspecified launch failure",
	StatusNotSupported:     "operation not supported",
	StatusExecutionFailed:  "execution failed",
	StatusUnknown:          "unknown error",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return statusNames[StatusUnknown]
	}
	return statusNames[s]
}

// Sentinel errors, one per failing status.
var (
	ErrInvalidValue     = errors.New("device: invalid argument")
	ErrMemoryAllocation = errors.New("device: out of memory")
	ErrInvalidHandle    = errors.New("device: invalid resource handle")
	ErrLaunchFailure    = errors.New("device: unspecified launch failure")
	ErrNotSupported     = errors.New("device: operation not supported")
	ErrExecutionFailed  = errors.New("device: execution failed")
)

var statusErrors = map[Status]error{
	StatusInvalidValue:     ErrInvalidValue,
	StatusMemoryAllocation: ErrMemoryAllocation,
	StatusInvalidHandle:    ErrInvalidHandle,
	StatusLaunchFailure:    ErrLaunchFailure,
	StatusNotSupported:     ErrNotSupported,
	StatusExecutionFailed:  ErrExecutionFailed,
}

// Err returns the sentinel error for s, or nil for StatusSuccess.
func (s Status) Err() error {
	return statusErrors[s]
}

// StatusOf classifies err. A nil error is StatusSuccess.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Status
	}
	for status, sentinel := range statusErrors {
		if errors.Is(err, sentinel) {
			return status
		}
	}
	return StatusUnknown
}

// Error is a failed runtime or library call, annotated with the call site
// that checked it.
type Error struct {
	API    string
	Op     string
	Status Status
	File   string
	Line   int
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s API failed at line %d with error: %s (%d)", e.API, e.Line, e.Status, int(e.Status))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	var inner *Error
	if e.Err != nil && e.Err != e.Status.Err() && !errors.As(e.Err, &inner) {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the status sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel := e.Status.Err(); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Check converts a non-nil err into an *Error that records the caller's
// file and line. api names the failing library ("device", "transform",
// "sparse"); op names the call.
func Check(api, op string, err error) error {
	if err == nil {
		return nil
	}
	_, file, line, _ := runtime.Caller(1)
	return &Error{
		API:    api,
		Op:     op,
		Status: StatusOf(err),
		File:   filepath.Base(file),
		Line:   line,
		Err:    err,
	}
}
