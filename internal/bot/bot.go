// Package bot connects the navigation controller to Telegram: it registers the commands and
// routes and renders controller actions as messages, reply keyboards and documents.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/examsbot/core/logger"
	tg "github.com/m3rciful/examsbot/core/telegram"
	"github.com/m3rciful/examsbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/examsbot/core/telegram/helpers"
	"github.com/m3rciful/examsbot/core/telegram/router"
	"github.com/m3rciful/examsbot/internal/journal"
	"github.com/m3rciful/examsbot/internal/navigation"

	tele "gopkg.in/telebot.v4"
)

// Handler is the Telegram front of the exam catalog.
type Handler struct {
	nav     *navigation.Controller
	journal journal.Journal
	adminID int64
}

// New returns a Handler. A nil journal disables download statistics.
func New(nav *navigation.Controller, j journal.Journal, adminID int64) *Handler {
	if j == nil {
		j = journal.Nop{}
	}
	return &Handler{nav: nav, journal: j, adminID: adminID}
}

// Register adds the bot commands to reg.
func (h *Handler) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.OnText,
		Description: "Open the main menu",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     h.OnStats,
		Description: "Most downloaded files",
		AdminOnly:   true,
		Hidden:      true,
	})
}

// Routes returns every route of the bot: commands, text and the non-text fallbacks.
func (h *Handler) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: h.adminID})
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		Text:            h.OnText,
		UnknownDocument: h.OnNonText,
	})...)
	for _, endpoint := range []string{tele.OnPhoto, tele.OnSticker, tele.OnVoice, tele.OnVideo, tele.OnAudio} {
		routes = append(routes, tg.Route{Endpoint: endpoint, Handler: h.OnNonText})
	}
	return routes
}

// OnText hands the message to the navigation controller and renders its answer.
func (h *Handler) OnText(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	return h.render(ctx, c, h.nav.Handle(ctx, sender.ID, c.Text()))
}

// OnNonText answers anything that is not a text message.
func (h *Handler) OnNonText(c tele.Context) error {
	return tghelpers.SendText(c, UseMenuReply)
}

// OnStats replies with the most downloaded files.
func (h *Handler) OnStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	stats, err := h.journal.Top(ctx, topDownloadsLimit)
	switch {
	case errors.Is(err, journal.ErrDisabled):
		return tghelpers.SendText(c, StatsDisabledReply)
	case err != nil:
		return fmt.Errorf("load download stats: %w", err)
	case len(stats) == 0:
		return tghelpers.SendText(c, NoDownloadsReply)
	}
	return tghelpers.SendText(c, formatStats(stats))
}

func (h *Handler) render(ctx context.Context, c tele.Context, act navigation.Action) error {
	switch act.Kind {
	case navigation.ActionMenu:
		return tghelpers.SendMenu(c, act.Text, act.Buttons)
	case navigation.ActionDocument:
		_, chatID, userID := tghelpers.IDs(c)
		err := tghelpers.SendDocument(c, act.Path, act.FileName, func() {
			h.record(ctx, journal.Download{UserID: userID, ChatID: chatID, Year: act.Year, FileName: act.FileName})
		})
		if err != nil {
			logger.Error(ctx, "bot", "document.send_failed",
				slog.String("year", act.Year),
				slog.String("file", act.FileName),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			return tghelpers.SendText(c, SendFailedReply)
		}
		return nil
	default:
		return tghelpers.SendText(c, act.Text)
	}
}

// record runs after a successful upload. Journal failures never reach the user.
func (h *Handler) record(ctx context.Context, d journal.Download) {
	logger.Info(ctx, "bot", "document.sent",
		slog.String("year", d.Year),
		slog.String("file", d.FileName),
	)
	if err := h.journal.Record(ctx, d); err != nil {
		logger.Warn(ctx, "bot", "journal.record_failed",
			slog.String("year", d.Year),
			slog.String("file", d.FileName),
			slog.String("err", err.Error()),
		)
	}
}

func formatStats(stats []journal.Stat) string {
	var b strings.Builder
	b.WriteString(StatsHeader)
	for i, s := range stats {
		fmt.Fprintf(&b, "\n%d. %s/%s: %d", i+1, s.Year, s.FileName, s.Downloads)
	}
	return b.String()
}
