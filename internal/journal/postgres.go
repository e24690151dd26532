package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	insertDownloadSQL = `INSERT INTO downloads (user_id, chat_id, year, file_name, sent_at)
VALUES (:user_id, :chat_id, :year, :file_name, :sent_at)`

	topDownloadsSQL = `SELECT year, file_name, COUNT(*) AS downloads
FROM downloads
GROUP BY year, file_name
ORDER BY downloads DESC, year, file_name
LIMIT $1`
)

// Postgres keeps the journal in the downloads table.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres returns a journal backed by db. The schema comes from the migrations directory.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Record inserts d; a zero SentAt is replaced by the current time.
func (p *Postgres) Record(ctx context.Context, d Download) error {
	if d.SentAt.IsZero() {
		d.SentAt = time.Now().UTC()
	}
	if _, err := p.db.NamedExecContext(ctx, insertDownloadSQL, d); err != nil {
		return fmt.Errorf("journal: insert download: %w", err)
	}
	return nil
}

// Top returns at most limit files ordered by download count.
func (p *Postgres) Top(ctx context.Context, limit int) ([]Stat, error) {
	var stats []Stat
	if err := p.db.SelectContext(ctx, &stats, topDownloadsSQL, limit); err != nil {
		return nil, fmt.Errorf("journal: top downloads: %w", err)
	}
	return stats, nil
}
