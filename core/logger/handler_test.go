package logger

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"log/slog"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*structuredHandler, *asyncWriter) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	}), aw
}

func closeWriter(t *testing.T, aw *asyncWriter) {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "navigation")
	LogEvent(ctx, log, slog.LevelInfo, "year.selected",
		slog.String("status", "ok"),
		slog.String("year", "2022"),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=navigation", "event=year.selected", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "year=2022"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	ctx := WithRID(context.Background(), "rid-json")

	log := slog.New(handler).With("component", "catalog")
	LogEvent(ctx, log, slog.LevelError, "catalog.unavailable",
		slog.String("status", "fail"),
		slog.String("err", "permission denied"),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"catalog"`, `"event":"catalog.unavailable"`, `"status":"fail"`, `"rid":"rid-json"`, `"err":"permission denied"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	rawRID := "123:456:789"
	LogEvent(WithRID(context.Background(), rawRID), slog.New(handler), slog.LevelInfo, "rid.test")
	closeWriter(t, aw)

	line := buf.String()
	if !strings.Contains(line, "rid="+CompactRID(rawRID)) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if strings.Contains(line, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", line)
	}
	if !strings.Contains(line, "component=app") {
		t.Fatalf("expected default component, got %s", line)
	}
}

func TestStructuredHandlerCompactRIDJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	rawRID := "12:34:56"
	LogEvent(WithRID(context.Background(), rawRID), slog.New(handler), slog.LevelInfo, "rid.test")
	closeWriter(t, aw)

	line := buf.String()
	if !strings.Contains(line, `"rid":"c.y.1k"`) {
		t.Fatalf("expected compact rid in JSON, got %s", line)
	}
	if !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", line)
	}
}

func TestStructuredHandlerDurationsAndLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	log := slog.New(handler)
	log.Debug("hidden")
	LogEvent(context.Background(), log, slog.LevelWarn, "send.slow",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Duration("backoff", 2*time.Second),
		slog.String("outcome", "exploded"),
		slog.String("payload", `a "quoted" value`),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug record should be filtered: %s", line)
	}
	for _, want := range []string{"level=WARN", "duration_ms=2", "backoff_ms=2000", `payload="a \"quoted\" value"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %s", want, line)
		}
	}
	if strings.Contains(line, "outcome=") {
		t.Fatalf("unknown outcome should be dropped: %s", line)
	}
}

func TestWriterRejectsAfterClose(t *testing.T) {
	aw := newAsyncWriter([]io.Writer{io.Discard}, 0)
	closeWriter(t, aw)
	if err := aw.Write([]byte("late\n")); err == nil {
		t.Fatal("expected error writing to closed writer")
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allow #%d = %v, want %v", i, got[i], want[i])
		}
	}
	if n, d := parseRatio("10"); n != 1 || d != 10 {
		t.Fatalf("parseRatio(10) = %d/%d", n, d)
	}
	if n, d := parseRatio("2/5"); n != 2 || d != 5 {
		t.Fatalf("parseRatio(2/5) = %d/%d", n, d)
	}
}

func TestNewUpdateContextCarriesMeta(t *testing.T) {
	ctx := WithHandler(NewUpdateContext("tg", 5, -100, 7), "OnText")
	m := MetaFrom(ctx)
	if m.RID != "5:-100:7" || m.UpdateID != 5 || m.ChatID != -100 || m.UserID != 7 || m.Handler != "OnText" {
		t.Fatalf("unexpected meta: %+v", m)
	}
	if FromContext(ctx) == nil {
		t.Fatal("expected scoped logger in context")
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\u200bb\x07c\td", 3); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := SanitizeLimit("line\nnext", 0); got != "" {
		t.Fatalf("got %q", got)
	}
}
