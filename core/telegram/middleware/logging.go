package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/examsbot/core/logger"
	tghelpers "github.com/m3rciful/examsbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers update ids for ttl so a redelivered update is logged once.
type seenUpdates struct {
	mu  sync.Mutex
	ttl time.Duration
	at  map[int]time.Time
}

var received = &seenUpdates{ttl: 10 * time.Second, at: make(map[int]time.Time)}

// first reports whether id has not been seen within ttl and marks it seen.
func (s *seenUpdates) first(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.at {
		if now.Sub(t) > s.ttl {
			delete(s.at, k)
		}
	}
	if _, ok := s.at[id]; ok {
		return false
	}
	s.at[id] = now
	return true
}

func receivedAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if u := c.Sender(); u != nil && u.Username != "" {
		attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
	}
	if u := c.Sender(); u != nil && u.LanguageCode != "" {
		attrs = append(attrs, slog.String("lang", u.LanguageCode))
	}
	if t := c.Text(); t != "" {
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
	}
	return attrs
}

// LoggerMiddleware gives the update its rid and logging context, then logs
// update.received at debug level (sampled, once per update id).
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		updateID, chatID, userID := tghelpers.IDs(c)
		ctx := logger.NewUpdateContext("tg", updateID, chatID, userID)
		c.Set("rid", logger.RIDFrom(ctx))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && received.first(updateID, time.Now()) {
			logger.LogEvent(ctx, nil, slog.LevelDebug, "update.received", receivedAttrs(c)...)
		}
		return next(c)
	}
}
