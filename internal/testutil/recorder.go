package testutil

import (
	"context"
	"sync"

	"github.com/vk/evalgraph/internal/publish"
)

// Recorder is a publish.Publisher that keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []publish.Notice
}

var _ publish.Publisher = (*Recorder)(nil)

func (r *Recorder) Publish(_ context.Context, n publish.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []publish.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publish.Notice(nil), r.notices...)
}
