package infrastructure

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SendLimiter paces outbound platform calls per key (one bucket per tenant bot),
// keeping each bot under the platform's send limits.
type SendLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*sendBucket
	rate        rate.Limit
	burst       int
	idleTTL     time.Duration
	cleanupTick time.Duration
	done        chan struct{}
	closeOnce   sync.Once
}

type sendBucket struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewSendLimiter allows perSecond sends with the given burst per key.
// perSecond <= 0 disables pacing.
func NewSendLimiter(perSecond float64, burst int) *SendLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	l := &SendLimiter{
		buckets:     make(map[string]*sendBucket),
		rate:        limit,
		burst:       burst,
		idleTTL:     10 * time.Minute,
		cleanupTick: 5 * time.Minute,
		done:        make(chan struct{}),
	}

	go l.cleanup()

	return l
}

func (l *SendLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &sendBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = b
	}
	b.lastUsed = time.Now()
	return b.limiter
}

// Wait blocks until a send for key is allowed or ctx is done.
func (l *SendLimiter) Wait(ctx context.Context, key string) error {
	return l.bucket(key).Wait(ctx)
}

// Allow reports whether a send for key may happen now, consuming a token if so.
func (l *SendLimiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// cleanup removes buckets not used recently
func (l *SendLimiter) cleanup() {
	ticker := time.NewTicker(l.cleanupTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep(time.Now())
		case <-l.done:
			return
		}
	}
}

func (l *SendLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if now.Sub(b.lastUsed) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
}

// Stats returns limiter statistics
func (l *SendLimiter) Stats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	return map[string]interface{}{
		"active_bots": len(l.buckets),
		"rate":        float64(l.rate),
		"burst":       l.burst,
	}
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (l *SendLimiter) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}
