package ws

import (
	"sync"
)

// sequencer hands out one ordering token per room. Whoever holds a room's
// token may append to its history and enqueue the matching broadcast, so every
// member sees messages in append order. Tokens are ref-counted by sessions and
// dropped when the last session of the room has finished its leave announcement.
type sequencer struct {
	mu     sync.Mutex
	tokens map[string]*roomToken
}

type roomToken struct {
	sync.Mutex
	refCnt int
}

func newSequencer() *sequencer {
	return &sequencer{tokens: make(map[string]*roomToken)}
}

func (s *sequencer) acquire(roomName string) *roomToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[roomName]
	if !ok {
		t = &roomToken{}
		s.tokens[roomName] = t
	}
	t.refCnt++
	return t
}

func (s *sequencer) release(roomName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[roomName]
	if !ok {
		return
	}
	t.refCnt--
	if t.refCnt <= 0 {
		delete(s.tokens, roomName)
	}
}

func (s *sequencer) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
