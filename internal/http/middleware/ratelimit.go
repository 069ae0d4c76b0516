package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientInfo struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter is a per-key token bucket used when Redis is not configured.
// It refills maxRequests tokens per window.
type localLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientInfo
	every     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

func newLocalLimiter(maxRequests int, window time.Duration) *localLimiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	return &localLimiter{
		clients: make(map[string]*clientInfo),
		every:   rate.Every(window / time.Duration(maxRequests)),
		burst:   maxRequests,
		idle:    3 * window,
	}
}

func (l *localLimiter) allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	// чистим давно неактивных клиентов
	if now.Sub(l.lastSweep) > l.idle {
		for k, ci := range l.clients {
			if now.Sub(ci.lastSeen) > l.idle {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	ci, ok := l.clients[key]
	if !ok {
		ci = &clientInfo{limiter: rate.NewLimiter(l.every, l.burst)}
		l.clients[key] = ci
	}
	ci.lastSeen = now
	return ci.limiter.AllowN(now, 1)
}
