package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

// Known values for the status and outcome fields; anything else is dropped from outcome.
var (
	knownStatus  = []string{"ok", "fail", "skip", "retry", "rate_limited", "denied"}
	knownOutcome = []string{"ok", "fail", "denied", "rate_limited"}
)

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func oneOf(value string, allowed []string) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if a == value {
			return value, true
		}
	}
	return value, false
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"action",
	"screen",
	"year",
	"file",
	"outcome",
	"duration_ms",
	"count",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"endpoint",
	"db",
	"host",
	"port",
	"root",
	"err",
	"err_code",
	"error_kind",
	"cause",
	"attempt",
	"attempts",
	"elapsed_ms",
}
