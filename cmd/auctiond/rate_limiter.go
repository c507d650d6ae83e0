// rate_limiter.go - Per-bidder submission rate limiting
package main

import (
	"sync"
	"time"
)

// RateLimiter implements a simple token bucket rate limiter
type RateLimiter struct {
	mu           sync.Mutex
	tokens       int
	maxTokens    int
	refillRate   int
	lastRefill   time.Time
	refillPeriod time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(maxTokens int, refillRate int, refillPeriod time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:       maxTokens,
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		lastRefill:   time.Now(),
		refillPeriod: refillPeriod,
	}
}

// Allow checks if a request is allowed and consumes a token if so
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Refill tokens based on time elapsed
	now := time.Now()
	timeElapsed := now.Sub(rl.lastRefill)
	refillCount := int(timeElapsed / rl.refillPeriod)

	if refillCount > 0 {
		rl.tokens += refillCount * rl.refillRate
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = now
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}

	return false
}

// GetTokens returns the current number of available tokens
func (rl *RateLimiter) GetTokens() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.tokens
}

// Reset resets the rate limiter to its initial state
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = rl.maxTokens
	rl.lastRefill = time.Now()
}

// BidderRateLimiter manages a token bucket per bidder identity. Buckets are
// created lazily on first submission.
type BidderRateLimiter struct {
	limiters     map[string]*RateLimiter
	mu           sync.RWMutex
	maxTokens    int
	refillRate   int
	refillPeriod time.Duration
}

// NewBidderRateLimiter creates a new per-bidder rate limiter
func NewBidderRateLimiter(maxTokens int, refillRate int, refillPeriod time.Duration) *BidderRateLimiter {
	return &BidderRateLimiter{
		limiters:     make(map[string]*RateLimiter),
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		refillPeriod: refillPeriod,
	}
}

// Allow checks if a submission from a bidder is allowed
func (brl *BidderRateLimiter) Allow(bidder string) bool {
	brl.mu.Lock()
	limiter, exists := brl.limiters[bidder]
	if !exists {
		limiter = NewRateLimiter(brl.maxTokens, brl.refillRate, brl.refillPeriod)
		brl.limiters[bidder] = limiter
	}
	brl.mu.Unlock()

	return limiter.Allow()
}

// GetTokens returns the current number of available tokens for a bidder
func (brl *BidderRateLimiter) GetTokens(bidder string) int {
	brl.mu.RLock()
	limiter, exists := brl.limiters[bidder]
	brl.mu.RUnlock()

	if !exists {
		return brl.maxTokens
	}

	return limiter.GetTokens()
}

// Reset resets the rate limiter for a specific bidder
func (brl *BidderRateLimiter) Reset(bidder string) {
	brl.mu.Lock()
	if limiter, exists := brl.limiters[bidder]; exists {
		limiter.Reset()
	}
	brl.mu.Unlock()
}
