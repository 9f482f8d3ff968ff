package history

import (
	"context"
	"sync"
)

// MemoryStore keeps the history log in process memory. It backs tests and
// single-node deployments that do not need the log to outlive the process.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[string][][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string][][]byte)}
}

// Append adds a copy of record to the tail of the channel's log.
func (s *MemoryStore) Append(_ context.Context, key string, record []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs[key] = append(s.logs[key], append([]byte(nil), record...))
	return nil
}

// Range reads records by position, mirroring Redis LRANGE index handling:
// negative indices count back from the tail and out-of-bound ranges clamp to
// an empty result rather than erroring.
func (s *MemoryStore) Range(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[key]
	length := int64(len(log))

	if start < 0 {
		start += length
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += length
	}
	if stop >= length {
		stop = length - 1
	}
	if start > stop || start >= length {
		return nil, nil
	}

	out := make([][]byte, 0, stop-start+1)
	for _, record := range log[start : stop+1] {
		out = append(out, append([]byte(nil), record...))
	}
	return out, nil
}

// Len reports the number of records stored under key.
func (s *MemoryStore) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[key])
}
