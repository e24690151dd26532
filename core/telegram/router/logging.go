package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/examsbot/core/logger"
	tghelpers "github.com/m3rciful/examsbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const summaryEvent = "handler.handled"

// summarized wraps next so every call ends with one handler.handled line.
// Failures are logged at error level with a sanitized message and err_code.
func summarized(name string, next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		ctx := tghelpers.WithHandler(c, name)
		err := next(c)

		level, result := slog.LevelInfo, "ok"
		attrs := make([]slog.Attr, 0, 6)
		if err != nil {
			level, result = slog.LevelError, "fail"
			attrs = append(attrs,
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				slog.String("err_code", deriveErrorCode(err)),
			)
		}
		attrs = append(attrs,
			slog.String("status", result),
			slog.String("outcome", result),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		logger.LogEvent(ctx, logger.Component("tg"), level, summaryEvent, attrs...)
		return err
	}
}

// skipped records an update that reached no handler.
func skipped(c tele.Context, name string) {
	ctx := tghelpers.WithHandler(c, name)
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, summaryEvent,
		slog.String("status", "skip"),
		slog.String("outcome", "ok"),
	)
}

// normalizeHandlerName turns a command endpoint like "/Top Files" into "top_files".
func normalizeHandlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// deriveErrorCode names an error for log aggregation: Telegram API code, then Go type name.
func deriveErrorCode(err error) string {
	var apiErr *tele.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr) && apiErr.Code != 0:
		return "TG_" + strconv.Itoa(apiErr.Code)
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
