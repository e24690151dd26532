package router

import (
	tg "github.com/m3rciful/examsbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls handling of text and document updates.
type TextOptions struct {
	// Text receives every text message that is not a registered command.
	Text            tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document updates.
// Registered commands that telebot did not match itself (e.g. "/cmd@otherbot") are still resolved here.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	var text, document tele.HandlerFunc
	if opts.Text != nil {
		text = summarized("text", opts.Text)
	}
	if opts.UnknownDocument != nil {
		document = summarized("unexpected_document", opts.UnknownDocument)
	}

	onText := func(c tele.Context) error {
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return summarized(normalizeHandlerName(key), cmd.Handler)(c)
			}
		}
		if text == nil {
			skipped(c, "unknown_text")
			return nil
		}
		return text(c)
	}

	onDocument := func(c tele.Context) error {
		if document == nil {
			skipped(c, "unexpected_document")
			return nil
		}
		return document(c)
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: onText},
		{Endpoint: tele.OnDocument, Handler: onDocument},
	}
}
