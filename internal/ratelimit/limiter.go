package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	minPause = 250 * time.Millisecond
	maxPause = 30 * time.Second
)

// Limiter paces outgoing requests to one upstream.
// After the upstream answers "too many requests" the next Wait also sleeps
// for a pause that doubles on each throttle and clears on success.
type Limiter struct {
	limiter *rate.Limiter
	name    string

	mu    sync.Mutex
	pause time.Duration
}

// NewLimiter creates a limiter allowing perMinute requests per minute.
// perMinute <= 0 disables pacing.
func NewLimiter(name string, perMinute int) *Limiter {
	if perMinute <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 1), name: name}
	}

	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	if burst > 5 {
		burst = 5
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
		name:    name,
	}
}

// Wait blocks until a request may be sent or ctx is done
func (l *Limiter) Wait(ctx context.Context) error {
	if pause := l.Pause(); pause > 0 {
		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may be sent now without waiting
func (l *Limiter) Allow() bool {
	return l.Pause() == 0 && l.limiter.Allow()
}

// Throttled records an HTTP 429 from the upstream
func (l *Limiter) Throttled() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pause == 0 {
		l.pause = minPause
		return
	}
	l.pause *= 2
	if l.pause > maxPause {
		l.pause = maxPause
	}
}

// Succeeded clears any throttle pause
func (l *Limiter) Succeeded() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pause = 0
}

// Pause returns the extra wait applied before the next request
func (l *Limiter) Pause() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pause
}

// Name returns the limiter name
func (l *Limiter) Name() string {
	return l.name
}
