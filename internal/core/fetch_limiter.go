package core

// fetch_limiter.go bounds concurrent server-side page fetches.
//
// Every refetch of a server-side session is a pair of database queries. The
// limiter is a semaphore over those fetches: when every slot is busy a fetch
// waits up to maxWait and then fails with ErrFetchBusy. WaitForDrain lets
// shutdown wait for in-flight fetches.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrFetchBusy is returned when no fetch slot frees up in time. Clients
// should retry after a short delay.
var ErrFetchBusy = errors.New("too many concurrent fetches")

const (
	// DefaultMaxConcurrentFetches is the default limit for parallel fetches.
	DefaultMaxConcurrentFetches = 8

	// DefaultFetchWait is how long a fetch waits for a slot before failing.
	DefaultFetchWait = 10 * time.Second
)

// FetchLimiter limits concurrent row source fetches.
type FetchLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewFetchLimiter allows at most maxConcurrent simultaneous fetches. Fetches
// that cannot get a slot within maxWait fail with ErrFetchBusy.
func NewFetchLimiter(maxConcurrent int, maxWait time.Duration) *FetchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentFetches
	}
	if maxWait <= 0 {
		maxWait = DefaultFetchWait
	}
	return &FetchLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire takes a slot. The caller must Release it.
func (l *FetchLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		// The caller's own cancellation wins over our timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrFetchBusy
	}
}

// TryAcquire takes a slot if one is free.
func (l *FetchLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *FetchLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.semaphore
}

// ActiveCount returns the number of fetches in flight.
func (l *FetchLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until no fetch is in flight or ctx is done.
func (l *FetchLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// FetchLimiterStatus is a snapshot of the limiter for health output.
type FetchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status reports the limiter's current state.
func (l *FetchLimiter) Status() FetchLimiterStatus {
	return FetchLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
