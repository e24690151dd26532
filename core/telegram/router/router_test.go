package router

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/examsbot/core/telegram"
	"github.com/m3rciful/examsbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	text  string
	user  *tele.User
	store map[string]any
}

func newFakeContext(text string, userID int64) *fakeContext {
	return &fakeContext{text: text, user: &tele.User{ID: userID}, store: map[string]any{}}
}

func (f *fakeContext) Text() string          { return f.text }
func (f *fakeContext) Sender() *tele.User    { return f.user }
func (f *fakeContext) Chat() *tele.Chat      { return &tele.Chat{ID: f.user.ID} }
func (f *fakeContext) Update() tele.Update   { return tele.Update{ID: 3} }
func (f *fakeContext) Get(key string) any    { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }

func routeFor(t *testing.T, routes []tg.Route, endpoint any) tele.HandlerFunc {
	t.Helper()
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	t.Fatalf("no route for %v", endpoint)
	return nil
}

func TestTextRoutesDispatch(t *testing.T) {
	var got []string
	reg := tg.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Description: "start",
		Handler:     func(tele.Context) error { got = append(got, "start"); return nil },
	})
	reg.RegisterCommand("/stats", commands.Command{
		Description: "stats",
		AdminOnly:   true,
		Handler:     func(tele.Context) error { got = append(got, "stats"); return nil },
	})

	routes := TextRoutes(reg, TextOptions{
		Text:            func(c tele.Context) error { got = append(got, "text:"+c.Text()); return nil },
		UnknownDocument: func(tele.Context) error { got = append(got, "doc"); return nil },
	})
	onText := routeFor(t, routes, tele.OnText)

	require.NoError(t, onText(newFakeContext("/start@other_bot", 1)))
	require.NoError(t, onText(newFakeContext("2022", 1)))
	// Admin-only commands are only reachable through their guarded command route.
	require.NoError(t, onText(newFakeContext("/stats", 1)))
	require.NoError(t, routeFor(t, routes, tele.OnDocument)(newFakeContext("", 1)))

	assert.Equal(t, []string{"start", "text:2022", "text:/stats", "doc"}, got)
}

func TestCommandRoutesGuardAdmin(t *testing.T) {
	var calls int
	reg := tg.NewRegistry()
	reg.RegisterCommand("/stats", commands.Command{
		Description: "stats",
		AdminOnly:   true,
		Handler:     func(tele.Context) error { calls++; return nil },
	})

	h := routeFor(t, CommandRoutes(reg, CommandRouteOptions{AdminID: 9}), "/stats")
	require.NoError(t, h(newFakeContext("/stats", 8)))
	assert.Zero(t, calls)
	require.NoError(t, h(newFakeContext("/stats", 9)))
	assert.Equal(t, 1, calls)
}

func TestNormalizeHandlerName(t *testing.T) {
	assert.Equal(t, "start", normalizeHandlerName("/Start"))
	assert.Equal(t, "unexpected_document", normalizeHandlerName(" unexpected document "))
	assert.Equal(t, "unknown", normalizeHandlerName(""))
}

type codedError struct{}

func (*codedError) Error() string { return "coded" }

func TestDeriveErrorCode(t *testing.T) {
	assert.Empty(t, deriveErrorCode(nil))
	assert.Equal(t, "TG_403", deriveErrorCode(fmt.Errorf("send: %w", &tele.Error{Code: 403, Description: "Forbidden"})))
	assert.Equal(t, "CODEDERROR", deriveErrorCode(&codedError{}))
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
}
