package journal

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process journal. Counts are lost on restart.
type Memory struct {
	mu        sync.Mutex
	downloads []Download
}

// NewMemory returns an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{}
}

// Record appends d.
func (m *Memory) Record(_ context.Context, d Download) error {
	if d.SentAt.IsZero() {
		d.SentAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads = append(m.downloads, d)
	return nil
}

// Top aggregates recorded downloads the same way the Postgres journal does.
func (m *Memory) Top(_ context.Context, limit int) ([]Stat, error) {
	type key struct{ year, file string }

	m.mu.Lock()
	counts := make(map[key]int)
	for _, d := range m.downloads {
		counts[key{d.Year, d.FileName}]++
	}
	m.mu.Unlock()

	stats := make([]Stat, 0, len(counts))
	for k, n := range counts {
		stats = append(stats, Stat{Year: k.year, FileName: k.file, Downloads: n})
	}
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.Downloads != b.Downloads {
			return a.Downloads > b.Downloads
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.FileName < b.FileName
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}
