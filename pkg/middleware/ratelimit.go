package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/collegematch/collegematch-engine/pkg/audit"
	"github.com/collegematch/collegematch-engine/pkg/auth"
	"github.com/collegematch/collegematch-engine/pkg/metrics"
)

// staleAfter is how long an idle user's limiter is kept.
const staleAfter = time.Hour

// UserRateLimiter throttles requests per authenticated user.
type UserRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
	auditor   *audit.SecurityAuditor
	logger    *zap.Logger
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewUserRateLimiter allows perMinute requests per user per minute with the
// given burst. perMinute <= 0 disables limiting.
func NewUserRateLimiter(perMinute, burst int, auditor *audit.SecurityAuditor, logger *zap.Logger) *UserRateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst < 1 {
		burst = 1
	}
	return &UserRateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      limit,
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
		auditor:   auditor,
		logger:    logger,
	}
}

func (rl *UserRateLimiter) reserve(userID string) *rate.Reservation {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > staleAfter {
		evicted := 0
		for id, e := range rl.limiters {
			if now.Sub(e.lastAccess) > staleAfter {
				delete(rl.limiters, id)
				evicted++
			}
		}
		rl.lastSweep = now
		rl.logger.Debug("Swept idle rate limiters",
			zap.Int("evicted", evicted),
			zap.Int("remaining", len(rl.limiters)))
	}

	entry, ok := rl.limiters[userID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[userID] = entry
	}
	entry.lastAccess = now
	return entry.limiter.ReserveN(now, 1)
}

// Limit wraps an authenticated handler. Over-limit requests get 429 with a
// Retry-After header and never reach next.
func (rl *UserRateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rl.rate == rate.Inf {
			next(w, r)
			return
		}

		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			next(w, r)
			return
		}

		res := rl.reserve(userID)
		delay := res.DelayFrom(rl.now())
		if delay == 0 {
			next(w, r)
			return
		}
		res.CancelAt(rl.now())

		metrics.RateLimited.Inc()
		rl.auditor.LogSearchThrottled(userID, r.RemoteAddr, delay)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "rate_limited",
			"message": "Too many searches. Please wait a moment and try again.",
		})
	}
}
