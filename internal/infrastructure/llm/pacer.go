package llm

import (
	"context"
	"sync"
	"time"
)

// pacer spaces out model calls with a refilling permit bucket. The original
// dashboard slept a fixed second before every API call as a safety buffer;
// the permit form keeps that spacing correct when several dashboard requests
// analyze concurrently.
type pacer struct {
	mu         sync.Mutex
	permits    int
	maxPermits int
	refillRate time.Duration
	lastRefill time.Time
}

func newPacer(maxPermits int, refillRate time.Duration) *pacer {
	if maxPermits <= 0 {
		maxPermits = 1
	}
	if refillRate <= 0 {
		refillRate = time.Second
	}
	return &pacer{
		permits:    maxPermits,
		maxPermits: maxPermits,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (p *pacer) Wait(ctx context.Context) error {
	p.mu.Lock()

	now := time.Now()
	elapsed := now.Sub(p.lastRefill)
	permitsToAdd := int(elapsed / p.refillRate)
	if permitsToAdd > 0 {
		p.permits = min(p.permits+permitsToAdd, p.maxPermits)
		p.lastRefill = now
	}

	if p.permits <= 0 {
		waitTime := p.refillRate - (now.Sub(p.lastRefill) % p.refillRate)
		p.mu.Unlock()

		timer := time.NewTimer(waitTime)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			p.mu.Lock()
			p.lastRefill = time.Now()
			p.mu.Unlock()
			return nil
		}
	}

	p.permits--
	p.mu.Unlock()
	return nil
}
