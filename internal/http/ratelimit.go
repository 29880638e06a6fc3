package http

import (
	"sync"
	"time"
)

// POST submissions per client allowed in each window.
const (
	rateLimitRequests = 60
	rateLimitWindow   = time.Minute

	rateLimitIdle  = 10 * time.Minute
	rateLimitSweep = 5 * time.Minute
)

// rateLimiter counts requests per client in fixed windows. Clients idle for
// rateLimitIdle are forgotten by a background sweep.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*clientWindow

	done     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	start    time.Time
	lastSeen time.Time
	count    int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientWindow),
		done:    make(chan struct{}),
	}
	go rl.sweepEvery(rateLimitSweep)
	return rl
}

// allow records a request from client and reports whether it is within the
// limit of the current window.
func (rl *rateLimiter) allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cw, ok := rl.clients[client]
	if !ok || now.Sub(cw.start) >= rl.window {
		rl.clients[client] = &clientWindow{start: now, lastSeen: now, count: 1}
		return true
	}
	cw.lastSeen = now
	cw.count++
	return cw.count <= rl.limit
}

// sweep forgets idle clients and returns how many were dropped.
func (rl *rateLimiter) sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rateLimitIdle)
	dropped := 0
	for client, cw := range rl.clients {
		if cw.lastSeen.Before(cutoff) {
			delete(rl.clients, client)
			dropped++
		}
	}
	return dropped
}

func (rl *rateLimiter) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}
