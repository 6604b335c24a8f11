// Package infra provides shared infrastructure for the wikia client:
// an unbounded memo store and request deduplication for identical
// in-flight computations.
package infra

import (
	"context"
	"sync"
)

// RequestDeduplicator coalesces identical in-flight requests to reduce API load.
// When multiple goroutines request the same data simultaneously, only one request
// is made and all waiters receive the same result.
type RequestDeduplicator struct {
	mu       sync.Mutex
	inflight map[string]*inflightRequest
}

// inflightRequest tracks a request in progress with waiters
type inflightRequest struct {
	done   chan struct{}
	result any
	err    error
	count  int // Number of waiters for metrics
}

// NewRequestDeduplicator creates a new request deduplicator
func NewRequestDeduplicator() *RequestDeduplicator {
	return &RequestDeduplicator{
		inflight: make(map[string]*inflightRequest),
	}
}

// Do executes fn only if no identical request (by key) is in flight.
// If a request with the same key is already running, waits for its result.
// Returns the result, whether it was shared from another request, and any error.
func (d *RequestDeduplicator) Do(ctx context.Context, key string, fn func() (any, error)) (any, bool, error) {
	d.mu.Lock()

	if req, ok := d.inflight[key]; ok {
		req.count++
		d.mu.Unlock()

		select {
		case <-req.done:
			return req.result, true, req.err
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	req := &inflightRequest{
		done:  make(chan struct{}),
		count: 1,
	}
	d.inflight[key] = req
	d.mu.Unlock()

	// Cleanup must run even if fn panics, otherwise waiters block forever.
	defer func() {
		close(req.done)
		d.mu.Lock()
		delete(d.inflight, key)
		d.mu.Unlock()
	}()

	req.result, req.err = fn()
	return req.result, false, req.err
}

// Stats returns the current number of in-flight requests
func (d *RequestDeduplicator) Stats() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}
