// Package state keeps per-conversation menu state for Telegram bots and serializes
// handling of updates that belong to the same conversation.
package state
