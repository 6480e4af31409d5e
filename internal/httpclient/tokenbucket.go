package httpclient

import (
	"sync"
	"time"
)

// tokenBucket is a continuously-refilling token bucket guarded by a mutex.
// It is hand-rolled rather than built on golang.org/x/time/rate because
// Client.TokensRemaining needs an exact "tokens remaining" read, which
// rate.Limiter does not expose.
type tokenBucket struct {
	mu           sync.Mutex
	maxTokens    float64
	tokens       float64
	refillPerSec float64
	lastRefill   time.Time
}

func newTokenBucket(maxTokens, refillPerSec float64) *tokenBucket {
	return &tokenBucket{
		maxTokens:    maxTokens,
		tokens:       maxTokens,
		refillPerSec: refillPerSec,
		lastRefill:   time.Now(),
	}
}

func (b *tokenBucket) refillLocked(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.refillPerSec
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now
}

// tryTake attempts to consume one token without blocking. It reports
// whether a token was available and, if not, how long until one will be.
func (b *tokenBucket) tryTake() (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.refillLocked(now)

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	deficit := 1 - b.tokens
	wait := time.Duration(deficit / b.refillPerSec * float64(time.Second))
	return false, wait
}

// remaining returns the current token count, for Client.TokensRemaining.
func (b *tokenBucket) remaining() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(time.Now())
	return b.tokens
}
