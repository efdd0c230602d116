package datasource

// limiter.go caps how many fetches run against the backing source at once,
// across all sessions. Fetches beyond the cap wait up to maxWait for a slot
// and then fail with ErrBusy.

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

// ErrBusy is returned when no fetch slot frees up in time.
var ErrBusy = errors.New("too many concurrent fetches, please try again later")

// Limiter defaults.
const (
	DefaultMaxConcurrent = 8
	DefaultMaxWait       = 10 * time.Second
)

// Limiter is a viewer.DataSource that bounds concurrent calls to another one.
type Limiter struct {
	source    viewer.DataSource
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewLimiter wraps source. Non-positive arguments select the defaults.
func NewLimiter(source viewer.DataSource, maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Limiter{
		source:    source,
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Fetch runs the wrapped fetch once a slot is free.
func (l *Limiter) Fetch(ctx context.Context, params viewer.QueryParameters) (viewer.ResultSet, error) {
	if err := l.acquire(ctx); err != nil {
		return nil, err
	}
	defer l.release()
	return l.source.Fetch(ctx, params)
}

func (l *Limiter) acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrBusy
	}
}

func (l *Limiter) release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.semaphore
}

// LimiterStatus is a snapshot of the limiter for health output.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *Limiter) Status() LimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return LimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}

// WaitForDrain blocks until no fetch is running or ctx ends.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		l.mu.RLock()
		active := l.active
		l.mu.RUnlock()
		if active == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
