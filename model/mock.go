package model

import (
	"context"
	"sync"
)

// MockGenerator is a test implementation of Generator.
//
// Use it to verify pipeline behavior without a live generation backend. It
// provides scripted responses, call history tracking, error injection, and
// thread-safe operation.
//
// Example usage:
//
//	mock := &MockGenerator{
//	    Responses: []string{"analysis text", "- issue one\n- issue two", "report text"},
//	}
//	out, err := mock.Generate(ctx, prompt)
//	// Returns each response in order; the last response repeats.
//
// Example with error injection:
//
//	mock := &MockGenerator{
//	    Err: &GenError{Code: CodeTimeout, Message: "mock timeout", Retryable: true},
//	}
type MockGenerator struct {
	// Responses contains the sequence of responses to return.
	// Each call returns the next response in order; once consumed, the
	// last response repeats.
	Responses []string

	// Err, if set, is returned by every Generate call instead of a response.
	Err error

	// Calls tracks the prompt of every Generate invocation, in order.
	Calls []string

	mu        sync.Mutex
	callIndex int
}

// Generate implements Generator. It records the call regardless of outcome.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, prompt)

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}

	return m.Responses[idx], nil
}

// Reset clears the call history and rewinds the response sequence.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns the number of Generate invocations so far.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}
