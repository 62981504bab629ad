// Package oracletest provides a scripted Oracle for tests.
package oracletest

import (
	"context"
	"fmt"
	"sync"

	"catalog-assistant/internal/oracle"
)

// Responder produces the raw result for one call.
type Responder func(input string) (map[string]interface{}, error)

// Call records one ExtractStructured invocation.
type Call struct {
	Task  string
	Input string
}

// Stub answers each task with a scripted Responder. Tasks without a
// responder return oracle.ErrUnavailable.
type Stub struct {
	mu         sync.Mutex
	responders map[string]Responder
	calls      []Call
}

func New() *Stub {
	return &Stub{responders: make(map[string]Responder)}
}

// On registers a responder for a task and returns the stub for chaining.
func (s *Stub) On(task string, r Responder) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responders[task] = r
	return s
}

// Returns registers a fixed result for a task.
func (s *Stub) Returns(task string, result map[string]interface{}) *Stub {
	return s.On(task, func(string) (map[string]interface{}, error) { return result, nil })
}

// Fails registers a fixed error for a task.
func (s *Stub) Fails(task string, err error) *Stub {
	return s.On(task, func(string) (map[string]interface{}, error) { return nil, err })
}

func (s *Stub) ExtractStructured(_ context.Context, task oracle.Task, input string) (map[string]interface{}, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Task: task.Name, Input: input})
	r, ok := s.responders[task.Name]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: no responder for %s", oracle.ErrUnavailable, task.Name)
	}
	return r(input)
}

// Calls returns the recorded calls in order.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns how many times a task was invoked.
func (s *Stub) CallCount(task string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Task == task {
			n++
		}
	}
	return n
}
