package application

import (
	"log/slog"
	"sync"

	"github.com/fiscalsync/fiscalsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Sampler = (*LogSampler)(nil)

// LogSampler logs the first occurrence of each distinct event and drops the
// rest, so a window with thousands of key-less documents produces one
// diagnostic line, not thousands.
type LogSampler struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewLogSampler creates an empty LogSampler. One instance is scoped to one
// run; a fresh run samples each event again.
func NewLogSampler() *LogSampler {
	return &LogSampler{seen: make(map[string]bool)}
}

// Sample logs the event with its attributes if this is its first occurrence.
func (s *LogSampler) Sample(event string, attrs ...any) {
	s.mu.Lock()
	first := !s.seen[event]
	s.seen[event] = true
	s.mu.Unlock()

	if first {
		slog.Info("diagnostic sample: "+event, attrs...)
	}
}
