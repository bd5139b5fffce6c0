package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Rule is a token-bucket setting. RPS <= 0 disables limiting.
type Rule struct {
	RPS   float64
	Burst int
}

// Limiter hands out one token bucket per key.
type Limiter struct {
	mu       sync.Mutex
	def      Rule
	rules    map[string]Rule
	limiters map[string]*rate.Limiter
}

func New(def Rule) *Limiter {
	return &Limiter{
		def:      def,
		rules:    make(map[string]Rule),
		limiters: make(map[string]*rate.Limiter),
	}
}

// SetRule overrides the default for one key. Must be called before the key is used.
func (l *Limiter) SetRule(key string, r Rule) {
	l.mu.Lock()
	l.rules[key] = r
	delete(l.limiters, key)
	l.mu.Unlock()
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	lim := l.get(key)
	if lim == nil {
		return true
	}
	return lim.Allow()
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[key]; ok {
		return lim
	}
	r, ok := l.rules[key]
	if !ok {
		r = l.def
	}
	if r.RPS <= 0 {
		l.limiters[key] = nil
		return nil
	}
	burst := r.Burst
	if burst <= 0 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Limit(r.RPS), burst)
	l.limiters[key] = lim
	return lim
}
