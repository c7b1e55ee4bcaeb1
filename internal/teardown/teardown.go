// Package teardown collects release steps as resources are acquired and
// runs them in reverse order on every exit path.
package teardown

import (
	"github.com/cwbudde/algo-accel/internal/logger"
)

type step struct {
	name string
	fn   func() error
}

// Stack is a LIFO list of release steps. The zero value is ready to use.
type Stack struct {
	steps []step
}

// Push registers fn to release the resource called name.
func (s *Stack) Push(name string, fn func() error) {
	s.steps = append(s.steps, step{name: name, fn: fn})
}

// Len reports how many steps are pending.
func (s *Stack) Len() int { return len(s.steps) }

// Run executes every pending step, newest first, and returns the first
// error. Later steps still run after a failure.
func (s *Stack) Run(log logger.Logger) error {
	var first error
	for i := len(s.steps) - 1; i >= 0; i-- {
		st := s.steps[i]
		if err := st.fn(); err != nil {
			log.Error("release failed", "resource", st.name, "error", err)
			if first == nil {
				first = err
			}
			continue
		}
		log.Debug("released", "resource", st.name)
	}
	s.steps = nil
	return first
}
