package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/examsbot/core/logger"
	tghelpers "github.com/m3rciful/examsbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Now is used in tests; defaults to time.Now.
	Now func() time.Time
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// userLimiter remembers when each user last got through. Entries older than
// interval are swept at most once per interval, so idle users do not pile up.
type userLimiter struct {
	mu        sync.Mutex
	interval  time.Duration
	lastSeen  map[int64]time.Time
	lastSweep time.Time
}

func newUserLimiter(interval time.Duration) *userLimiter {
	return &userLimiter{interval: interval, lastSeen: make(map[int64]time.Time)}
}

// allow reports whether userID may proceed at ts and records the pass.
func (l *userLimiter) allow(userID int64, ts time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ts.Sub(l.lastSweep) >= l.interval {
		for id, seen := range l.lastSeen {
			if ts.Sub(seen) >= l.interval {
				delete(l.lastSeen, id)
			}
		}
		l.lastSweep = ts
	}
	if last, ok := l.lastSeen[userID]; ok && ts.Sub(last) < l.interval {
		return false
	}
	l.lastSeen[userID] = ts
	return true
}

func (l *userLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lastSeen)
}

// RateLimitMiddleware drops updates that arrive from the same user faster than Interval.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	limiter := newUserLimiter(opts.Interval)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if limiter.allow(user.ID, now()) {
				return next(c)
			}

			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("status", "rate_limited"),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
