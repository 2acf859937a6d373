package model

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// LimitGenerator bounds the number of concurrently in-flight generation
// calls with a weighted semaphore. The generation service is a single shared
// resource with finite throughput; callers beyond the bound queue on the
// semaphore (context-aware) rather than failing immediately.
//
// LimitGenerator is safe for concurrent use and holds no per-request state.
type LimitGenerator struct {
	next Generator
	sem  *semaphore.Weighted
}

// NewLimitGenerator wraps next with a bound of maxInflight concurrent calls.
// A bound of 0 or less defaults to 1 (fully serialized, appropriate for a
// single locally hosted model server).
func NewLimitGenerator(next Generator, maxInflight int64) (*LimitGenerator, error) {
	if next == nil {
		return nil, fmt.Errorf("limit generator: next generator cannot be nil")
	}
	if maxInflight <= 0 {
		maxInflight = 1
	}
	return &LimitGenerator{
		next: next,
		sem:  semaphore.NewWeighted(maxInflight),
	}, nil
}

// Generate implements Generator. It waits for a slot, forwarding the call
// once one is free. If the context expires while queued, the wait is
// abandoned with a timeout error.
func (g *LimitGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return "", &GenError{
			Code:    CodeTimeout,
			Message: "request deadline exceeded while queued for a generation slot",
			Cause:   err,
		}
	}
	defer g.sem.Release(1)

	return g.next.Generate(ctx, prompt)
}
