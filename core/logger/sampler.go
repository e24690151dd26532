package logger

import (
	"strconv"
	"strings"
	"sync"
)

// ratioSampler admits the first keep events of every window of size every.
// A zero window admits everything.
type ratioSampler struct {
	mu          sync.Mutex
	keep, every int
	seen        int
}

func newRatioSampler(keep, every int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(keep, every)
	return s
}

// Set replaces the ratio and starts a new window. Non-positive values turn sampling off.
func (s *ratioSampler) Set(keep, every int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = 0
	s.keep, s.every = 0, 0
	if keep > 0 && every > 0 {
		s.keep, s.every = min(keep, every), every
	}
}

// Allow reports whether the next event is inside the admitted part of the window.
func (s *ratioSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.every == 0 {
		return true
	}
	pos := s.seen % s.every
	s.seen = pos + 1
	return pos < s.keep
}

// parseRatio reads "n/d", or a bare "d" meaning 1/d. Anything else yields 0/0.
func parseRatio(ratio string) (int, int) {
	num, den, found := strings.Cut(strings.TrimSpace(ratio), "/")
	if !found {
		num, den = "1", num
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, 0
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil || (!found && d <= 0) {
		return 0, 0
	}
	return n, d
}
