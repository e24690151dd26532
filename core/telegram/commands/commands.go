package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are rejected for everyone except telegram.admin_id.
	AdminOnly bool
	// Hidden commands are routed but not published in the Telegram command menu.
	Hidden bool
}
