package progress

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyAssigned = errors.New("trainee already has an active path")
)

// Store persists instances and their stage-open bits.
type Store interface {
	// CreateInstance writes the instance and its stage progress rows in one
	// shot. Fails with ErrAlreadyAssigned if the trainee has an active
	// instance.
	CreateInstance(ctx context.Context, inst Instance, stages []StageProgress) error
	GetInstance(ctx context.Context, id string) (Instance, error)
	// ActiveInstance returns ErrNotFound when the trainee has none.
	ActiveInstance(ctx context.Context, traineeID string) (Instance, error)
	StageProgressByInstance(ctx context.Context, instanceID string) ([]StageProgress, error)
	// MarkStageOpened is idempotent: opening an already-open stage is a no-op.
	// Returns ErrNotFound when the progress row does not exist.
	MarkStageOpened(ctx context.Context, instanceID, stageID, openedBy string, openedAt int64) error
}

type memoryStore struct {
	mu        sync.RWMutex
	instances map[string]Instance
	stages    map[string][]StageProgress // instanceID -> rows
}

func NewInMemoryStore() Store {
	return &memoryStore{
		instances: map[string]Instance{},
		stages:    map[string][]StageProgress{},
	}
}

func (m *memoryStore) CreateInstance(_ context.Context, inst Instance, stages []StageProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.instances {
		if other.TraineeID == inst.TraineeID && other.IsActive {
			return ErrAlreadyAssigned
		}
	}
	m.instances[inst.ID] = inst
	rows := make([]StageProgress, len(stages))
	copy(rows, stages)
	m.stages[inst.ID] = rows
	return nil
}

func (m *memoryStore) GetInstance(_ context.Context, id string) (Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	if !ok {
		return Instance{}, ErrNotFound
	}
	return inst, nil
}

func (m *memoryStore) ActiveInstance(_ context.Context, traineeID string) (Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, inst := range m.instances {
		if inst.TraineeID == traineeID && inst.IsActive {
			return inst, nil
		}
	}
	return Instance{}, ErrNotFound
}

func (m *memoryStore) StageProgressByInstance(_ context.Context, instanceID string) ([]StageProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, ok := m.stages[instanceID]
	if !ok {
		return nil, nil
	}
	out := make([]StageProgress, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *memoryStore) MarkStageOpened(_ context.Context, instanceID, stageID, openedBy string, openedAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.stages[instanceID]
	if !ok {
		return ErrNotFound
	}
	for i, sp := range rows {
		if sp.StageID != stageID {
			continue
		}
		if sp.IsOpened {
			return nil
		}
		rows[i].IsOpened = true
		rows[i].OpenedBy = openedBy
		rows[i].OpenedAt = openedAt
		return nil
	}
	return ErrNotFound
}
