package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	ActionSendMessage   = "send_message"
	ActionSubmitPending = "submit_pending"
	ActionStartThread   = "start_thread"
	ActionTyping        = "typing"
	ActionUnlock        = "unlock"
	ActionUpload        = "upload"
	ActionRequest       = "request"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per user and action.
type RateLimiter struct {
	buckets map[string]*entry
	mutex   sync.Mutex
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*entry),
	}
}

func newLimiter(action string) *rate.Limiter {
	switch action {
	case ActionSendMessage, ActionSubmitPending:
		// 10 messages burst, refill one every 6 seconds
		return rate.NewLimiter(rate.Every(6*time.Second), 10)
	case ActionStartThread:
		return rate.NewLimiter(rate.Every(12*time.Minute), 5)
	case ActionTyping:
		return rate.NewLimiter(rate.Every(2*time.Second), 30)
	case ActionUnlock:
		// 5 PIN attempts, then one every 30 seconds
		return rate.NewLimiter(rate.Every(30*time.Second), 5)
	case ActionRequest:
		// general API traffic per client IP
		return rate.NewLimiter(rate.Every(time.Second), 60)
	case ActionUpload:
		return rate.NewLimiter(rate.Every(10*time.Second), 5)
	default:
		return rate.NewLimiter(rate.Every(3*time.Second), 20)
	}
}

// Allow consumes a token for userID/action. When the bucket is empty it
// returns false and how long until the next token.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	key := userID + ":" + action
	now := time.Now()

	rl.mutex.Lock()
	e, exists := rl.buckets[key]
	if !exists {
		e = &entry{limiter: newLimiter(action)}
		rl.buckets[key] = e
	}
	e.lastSeen = now
	rl.mutex.Unlock()

	reservation := e.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Cleanup removes buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for key, e := range rl.buckets {
		if now.Sub(e.lastSeen) > maxIdle {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) Size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.buckets)
}

// StartCleanupRoutine prunes idle buckets every 30 minutes until done closes.
func (rl *RateLimiter) StartCleanupRoutine(done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-done:
				return
			}
		}
	}()
}
