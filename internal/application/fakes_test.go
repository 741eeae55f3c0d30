package application

import (
	"context"
	"errors"
	"sync"

	"mysterybox/internal/streaming"
)

type memoryHashSet struct {
	mu       sync.Mutex
	hashes   map[string]int
	readErr  error
	writeErr error
}

func newMemoryHashSet() *memoryHashSet {
	return &memoryHashSet{hashes: make(map[string]int)}
}

func (m *memoryHashSet) IsProcessed(ctx context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return false, m.readErr
	}
	_, ok := m.hashes[hash]
	return ok, nil
}

func (m *memoryHashSet) MarkProcessed(ctx context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return false, m.writeErr
	}
	if _, ok := m.hashes[hash]; ok {
		return false, nil
	}
	m.hashes[hash] = 1
	return true, nil
}

type scriptedSource struct {
	mu        sync.Mutex
	responses []RawResponse
	errs      []error
	calls     int
	params    [][2]string
}

func (s *scriptedSource) FetchOutcome(ctx context.Context, hash, senderID string) (RawResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	s.params = append(s.params, [2]string{hash, senderID})
	if i < len(s.errs) && s.errs[i] != nil {
		return RawResponse{}, s.errs[i]
	}
	if len(s.responses) == 0 {
		return RawResponse{}, errors.New("no scripted response")
	}
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []streaming.AckEvent
	err    error
	// failures is the number of calls that fail before delivery succeeds.
	failures int
	calls    int
}

func (r *recordingNotifier) Notify(ctx context.Context, event streaming.AckEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return r.err
	}
	if r.failures > 0 {
		r.failures--
		return errors.New("broker unavailable")
	}
	r.events = append(r.events, event)
	return nil
}

type countingObserver struct {
	states map[AckState]int
}

func (c *countingObserver) OnAcknowledge(kind streaming.AckKind, state AckState) {
	if c.states == nil {
		c.states = make(map[AckState]int)
	}
	c.states[state]++
}
