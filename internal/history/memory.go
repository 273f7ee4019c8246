package history

import (
	"context"
	"sync"
)

// MemoryStore keeps logs in process memory. It serves tests and single-node
// development runs; it has the same bounds semantics as the Redis store.
type MemoryStore struct {
	mu   sync.Mutex
	logs map[string][]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string][]string)}
}

func (m *MemoryStore) Append(_ context.Context, room, entry string) error {
	m.mu.Lock()
	m.logs[room] = append(m.logs[room], entry)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Trim(_ context.Context, room string, maxLen int) error {
	if maxLen <= 0 {
		return ErrInvalidBound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimLocked(room, maxLen)
	return nil
}

func (m *MemoryStore) AppendTrimmed(_ context.Context, room, entry string, maxLen int) error {
	if maxLen <= 0 {
		return ErrInvalidBound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[room] = append(m.logs[room], entry)
	m.trimLocked(room, maxLen)
	return nil
}

func (m *MemoryStore) trimLocked(room string, maxLen int) {
	log := m.logs[room]
	if len(log) <= maxLen {
		return
	}
	kept := make([]string, maxLen)
	copy(kept, log[len(log)-maxLen:])
	m.logs[room] = kept
}

func (m *MemoryStore) Recent(_ context.Context, room string, n int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := m.logs[room]
	if n <= 0 {
		return []string{}, nil
	}
	if n > len(log) {
		n = len(log)
	}
	out := make([]string, n)
	copy(out, log[len(log)-n:])
	return out, nil
}

// Len reports the current log length for room.
func (m *MemoryStore) Len(room string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs[room])
}
