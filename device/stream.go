package device

import (
	"fmt"
	"sync"
)

// streamDepth bounds how many operations may be queued before Enqueue
// blocks the issuing goroutine.
const streamDepth = 256

// Stream is an in-order queue of device operations. Operations run on a
// dedicated goroutine in issue order; the issuing goroutine does not wait
// for them until it calls Synchronize.
type Stream struct {
	ctx  *Context
	ops  chan func()
	done chan struct{}

	sendMu sync.Mutex
	closed bool

	errMu sync.Mutex
	err   error
}

// NewStream creates a non-blocking stream on c.
func (c *Context) NewStream() (*Stream, error) {
	s := &Stream{
		ctx:  c,
		ops:  make(chan func(), streamDepth),
		done: make(chan struct{}),
	}
	if err := c.track(s); err != nil {
		return nil, err
	}
	go s.run()
	c.log.Debug("stream created")
	return s, nil
}

func (s *Stream) run() {
	defer close(s.done)
	for op := range s.ops {
		op()
	}
}

// Enqueue schedules fn after every previously issued operation. Once an
// operation has failed, later operations are skipped.
func (s *Stream) Enqueue(name string, fn func() error) error {
	if fn == nil {
		return fmt.Errorf("device: enqueue %s: nil operation: %w", name, ErrInvalidValue)
	}
	return s.send(func() {
		if s.Err() != nil {
			return
		}
		if err := safeCall(fn); err != nil {
			s.fail(fmt.Errorf("device: %s: %w", name, err))
		}
	})
}

// Synchronize blocks until every previously issued operation finished and
// returns the first error raised on the stream, if any.
func (s *Stream) Synchronize() error {
	reached := make(chan struct{})
	if err := s.send(func() { close(reached) }); err != nil {
		return err
	}
	<-reached
	return s.Err()
}

// Err returns the sticky stream error without waiting.
func (s *Stream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Close waits for queued operations and destroys the stream.
// Closing twice is a no-op.
func (s *Stream) Close() error {
	s.sendMu.Lock()
	if s.closed {
		s.sendMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ops)
	s.sendMu.Unlock()

	<-s.done
	s.ctx.untrack(s)
	s.ctx.log.Debug("stream destroyed")
	return nil
}

func (s *Stream) send(op func()) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		return fmt.Errorf("device: use of destroyed stream: %w", ErrInvalidHandle)
	}
	s.ops <- op
	return nil
}

func (s *Stream) fail(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

func safeCall(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = executionError(rec)
		}
	}()
	return fn()
}

func executionError(rec any) error {
	if recErr, ok := rec.(error); ok {
		return fmt.Errorf("%w: %w", ErrLaunchFailure, recErr)
	}
	return fmt.Errorf("%w: %v", ErrLaunchFailure, rec)
}

// CopyRealToDevice schedules a host-to-device copy. src is staged at issue
// time, so the caller may reuse it immediately.
func (s *Stream) CopyRealToDevice(dst *RealBuffer, src []float64) error {
	if dst == nil || dst.data == nil {
		return fmt.Errorf("device: copy to freed buffer: %w", ErrInvalidHandle)
	}
	if len(src) != dst.Len() {
		return fmt.Errorf("device: copy %d elements into buffer of %d: %w", len(src), dst.Len(), ErrInvalidValue)
	}
	staged := append([]float64(nil), src...)
	return s.Enqueue("memcpy host to device", func() error {
		if dst.data == nil {
			return ErrInvalidHandle
		}
		copy(dst.data, staged)
		return nil
	})
}

// CopyRealToHost schedules a device-to-host copy. dst is valid only after
// the next Synchronize.
func (s *Stream) CopyRealToHost(dst []float64, src *RealBuffer) error {
	if src == nil || src.data == nil {
		return fmt.Errorf("device: copy from freed buffer: %w", ErrInvalidHandle)
	}
	if len(dst) != src.Len() {
		return fmt.Errorf("device: copy %d elements into host slice of %d: %w", src.Len(), len(dst), ErrInvalidValue)
	}
	return s.Enqueue("memcpy device to host", func() error {
		if src.data == nil {
			return ErrInvalidHandle
		}
		copy(dst, src.data)
		return nil
	})
}

// CopyComplexToDevice schedules a host-to-device copy of complex values.
func (s *Stream) CopyComplexToDevice(dst *ComplexBuffer, src []complex128) error {
	if dst == nil || dst.data == nil {
		return fmt.Errorf("device: copy to freed buffer: %w", ErrInvalidHandle)
	}
	if len(src) != dst.Len() {
		return fmt.Errorf("device: copy %d elements into buffer of %d: %w", len(src), dst.Len(), ErrInvalidValue)
	}
	staged := append([]complex128(nil), src...)
	return s.Enqueue("memcpy host to device", func() error {
		if dst.data == nil {
			return ErrInvalidHandle
		}
		Interleave(dst.data, staged)
		return nil
	})
}

// CopyComplexToHost schedules a device-to-host copy of complex values.
func (s *Stream) CopyComplexToHost(dst []complex128, src *ComplexBuffer) error {
	if src == nil || src.data == nil {
		return fmt.Errorf("device: copy from freed buffer: %w", ErrInvalidHandle)
	}
	if len(dst) != src.Len() {
		return fmt.Errorf("device: copy %d elements into host slice of %d: %w", src.Len(), len(dst), ErrInvalidValue)
	}
	return s.Enqueue("memcpy device to host", func() error {
		if src.data == nil {
			return ErrInvalidHandle
		}
		Deinterleave(dst, src.data)
		return nil
	})
}

// CopyIndexToDevice schedules a host-to-device copy of indices.
func (s *Stream) CopyIndexToDevice(dst *IndexBuffer, src []int32) error {
	if dst == nil || dst.data == nil {
		return fmt.Errorf("device: copy to freed buffer: %w", ErrInvalidHandle)
	}
	if len(src) != dst.Len() {
		return fmt.Errorf("device: copy %d elements into buffer of %d: %w", len(src), dst.Len(), ErrInvalidValue)
	}
	staged := append([]int32(nil), src...)
	return s.Enqueue("memcpy host to device", func() error {
		if dst.data == nil {
			return ErrInvalidHandle
		}
		copy(dst.data, staged)
		return nil
	})
}

// Interleave writes src as (re, im) pairs into dst, which must hold
// 2*len(src) values.
func Interleave(dst []float64, src []complex128) {
	for i, v := range src {
		dst[2*i] = real(v)
		dst[2*i+1] = imag(v)
	}
}

// Deinterleave reads (re, im) pairs from src into dst.
func Deinterleave(dst []complex128, src []float64) {
	for i := range dst {
		dst[i] = complex(src[2*i], src[2*i+1])
	}
}
