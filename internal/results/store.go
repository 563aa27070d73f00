package results

import (
	"context"
	"sync"
)

// Store persists finished attempts. Insert is the only write.
type Store interface {
	Insert(ctx context.Context, r TestResult) error
	ByUserAndTest(ctx context.Context, userID, testID string) ([]TestResult, error)
	ByUser(ctx context.Context, userID string) ([]TestResult, error)
	CountAttempts(ctx context.Context, userID, testID string) (int, error)
}

type memoryStore struct {
	mu   sync.RWMutex
	rows []TestResult
}

func NewInMemoryStore() Store { return &memoryStore{} }

func (m *memoryStore) Insert(_ context.Context, r TestResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, r)
	return nil
}

func (m *memoryStore) ByUserAndTest(_ context.Context, userID, testID string) ([]TestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []TestResult
	for _, r := range m.rows {
		if r.UserID == userID && r.TestID == testID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) ByUser(_ context.Context, userID string) ([]TestResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []TestResult
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) CountAttempts(_ context.Context, userID, testID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.rows {
		if r.UserID == userID && r.TestID == testID {
			n++
		}
	}
	return n, nil
}
