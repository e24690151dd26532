package router

import (
	"context"
	"log/slog"

	"github.com/m3rciful/examsbot/core/logger"
	tg "github.com/m3rciful/examsbot/core/telegram"
	"github.com/m3rciful/examsbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares one route per registered command. Admin-only commands are guarded.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		h := summarized(normalizeHandlerName(name), def.Handler)
		if def.AdminOnly {
			h = adminOnly(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
	}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "routes.commands",
		slog.Int("commands", len(routes)))
	return routes
}
