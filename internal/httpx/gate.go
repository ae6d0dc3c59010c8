package httpx

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Gate paces requests to one site. It slows down multiplicatively when the
// site throttles and speeds up additively after a run of successes.
type Gate struct {
	mu        sync.Mutex
	lim       *rate.Limiter
	curr      rate.Limit
	min, max  rate.Limit
	incStep   rate.Limit
	incEvery  int
	okCount   int
	coolUntil time.Time
}

// NewGate starts at perSec requests per second and never leaves [min, max].
func NewGate(perSec, min, max float64) *Gate {
	if min <= 0 {
		min = 0.1
	}
	if max < min {
		max = min
	}
	if perSec < min {
		perSec = min
	}
	if perSec > max {
		perSec = max
	}
	return &Gate{
		lim:      rate.NewLimiter(rate.Limit(perSec), 1),
		curr:     rate.Limit(perSec),
		min:      rate.Limit(min),
		max:      rate.Limit(max),
		incStep:  rate.Limit(min),
		incEvery: 5,
	}
}

// Wait blocks until the next request may go out.
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	cool := g.coolUntil
	lim := g.lim
	g.mu.Unlock()

	if d := time.Until(cool); d > 0 {
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
	return lim.Wait(ctx)
}

func (g *Gate) OnOK() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.okCount++
	if g.okCount < g.incEvery {
		return
	}
	g.okCount = 0
	n := g.curr + g.incStep
	if n > g.max {
		n = g.max
	}
	if n != g.curr {
		g.curr = n
		g.lim.SetLimit(n)
	}
}

// OnThrottle halves the rate and pauses every caller for coolOff.
func (g *Gate) OnThrottle(coolOff time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.curr / 2
	if n < g.min {
		n = g.min
	}
	if n != g.curr {
		g.curr = n
		g.lim.SetLimit(n)
	}
	g.okCount = 0
	g.coolUntil = time.Now().Add(coolOff)
}

// Limit is the current rate in requests per second.
func (g *Gate) Limit() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return float64(g.curr)
}
