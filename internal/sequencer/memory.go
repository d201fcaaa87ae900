package sequencer

import (
	"context"
	"sync/atomic"
)

// MemorySequencer is an in-process counter with no durability. It exists for
// tests and local development.
type MemorySequencer struct {
	value atomic.Int64
}

func NewMemorySequencer(seed int64) *MemorySequencer {
	s := &MemorySequencer{}
	s.value.Store(seed)
	return s
}

func (s *MemorySequencer) Next(ctx context.Context) (int64, error) {
	return s.value.Add(1), nil
}

// Current returns the last issued value without incrementing.
func (s *MemorySequencer) Current() int64 {
	return s.value.Load()
}
