package telegram

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/m3rciful/examsbot/core/logger"
	"github.com/m3rciful/examsbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds the bot's slash commands.
type Registry struct {
	commands map[string]commands.Command
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]commands.Command)}
}

// RegisterCommand adds a new command. Invalid or duplicate registrations are logged and skipped.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	reason := ""
	switch {
	case name == "" || cmd.Handler == nil || cmd.Description == "":
		reason = "invalid"
	case name[0] != '/':
		reason = "no_slash_prefix"
	default:
		if _, exists := r.commands[name]; exists {
			reason = "duplicate"
		}
	}
	if reason != "" {
		logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, "register.command.skip",
			slog.String("name", name), slog.String("reason", reason))
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns commands sorted by name, optionally without hidden and admin-only ones.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for name, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: name, Description: meta.Description})
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return list
}

// LookupCommand resolves "/name" or "/name@botname" to a registered command.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", commands.Command{}, false
	}
	name, _, _ := strings.Cut(strings.Fields(text + " ")[0], "@")
	cmd, ok := r.commands[name]
	return name, cmd, ok
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// InitBotCommands publishes the visible commands as the Telegram command menu.
// A failure is logged and otherwise ignored; routing does not depend on the menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	ctx := context.Background()
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.LogEvent(ctx, logger.TWire, slog.LevelError, "register.commands.set",
			slog.String("status", "fail"), slog.String("err", err.Error()))
		return
	}
	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "register.commands.set",
		slog.String("status", "ok"), slog.Int("count", len(list)))
}
