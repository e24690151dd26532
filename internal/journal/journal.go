// Package journal records delivered exam files for the admin download statistics.
package journal

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled is returned by Top when no journal storage is configured.
var ErrDisabled = errors.New("journal: disabled")

// Download is one delivered document.
type Download struct {
	UserID   int64     `db:"user_id"`
	ChatID   int64     `db:"chat_id"`
	Year     string    `db:"year"`
	FileName string    `db:"file_name"`
	SentAt   time.Time `db:"sent_at"`
}

// Stat is the download count of one file.
type Stat struct {
	Year      string `db:"year"`
	FileName  string `db:"file_name"`
	Downloads int    `db:"downloads"`
}

// Journal stores downloads and aggregates them.
type Journal interface {
	Record(ctx context.Context, d Download) error
	// Top returns the most downloaded files, most popular first; ties are ordered by year and name.
	Top(ctx context.Context, limit int) ([]Stat, error)
}

// Nop is the journal used when the database is disabled.
type Nop struct{}

// Record discards d.
func (Nop) Record(context.Context, Download) error { return nil }

// Top always reports ErrDisabled.
func (Nop) Top(context.Context, int) ([]Stat, error) { return nil, ErrDisabled }
