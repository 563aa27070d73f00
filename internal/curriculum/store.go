package curriculum

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrBadStageOrder = errors.New("stage order numbers must run 1..N without gaps or duplicates")
)

// Store is the persistence boundary for the static curriculum graph.
// Write paths are mentor-only; trainees consume read paths.
type Store interface {
	PutPath(ctx context.Context, p LearningPath) error
	// GetPath returns the full path tree with stages, sessions and test
	// summaries (questions omitted), stages and sessions in order.
	GetPath(ctx context.Context, id string) (LearningPath, error)
	ListPaths(ctx context.Context) ([]LearningPath, error)

	PutTest(ctx context.Context, t Test) error
	// GetTest returns the full test including answer keys. Callers serving
	// trainees must strip keys via Sanitize.
	GetTest(ctx context.Context, id string) (Test, error)

	// StageOfTest resolves the stage containing a test through its session.
	// Returns ErrNotFound for ad-hoc tests that live outside any session.
	StageOfTest(ctx context.Context, testID string) (stageID, pathID string, err error)
}

// Sanitize returns a copy safe to serve to trainees: answer keys removed.
func Sanitize(t Test) Test {
	out := t
	out.Questions = make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		q.CorrectAnswer = ""
		out.Questions[i] = q
	}
	return out
}

type memoryStore struct {
	mu    sync.RWMutex
	paths map[string]LearningPath
	tests map[string]Test
}

// NewInMemoryStore backs the curriculum with process memory. Used in tests
// and single-node dev setups.
func NewInMemoryStore() Store {
	return &memoryStore{
		paths: map[string]LearningPath{},
		tests: map[string]Test{},
	}
}

func (m *memoryStore) PutPath(_ context.Context, p LearningPath) error {
	if err := validateStageOrder(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sortPath(&p)
	m.paths[p.ID] = p
	for si := range p.Stages {
		for sj := range p.Stages[si].Sessions {
			for _, t := range p.Stages[si].Sessions[sj].Tests {
				if t.ID == "" {
					continue
				}
				t.SessionID = p.Stages[si].Sessions[sj].ID
				if existing, ok := m.tests[t.ID]; ok && len(t.Questions) == 0 {
					t.Questions = existing.Questions
				}
				m.tests[t.ID] = t
			}
		}
	}
	return nil
}

func (m *memoryStore) GetPath(_ context.Context, id string) (LearningPath, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.paths[id]
	if !ok {
		return LearningPath{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) ListPaths(_ context.Context) ([]LearningPath, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]LearningPath, 0, len(m.paths))
	for _, p := range m.paths {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) PutTest(_ context.Context, t Test) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[t.ID] = t
	return nil
}

func (m *memoryStore) GetTest(_ context.Context, id string) (Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return Test{}, ErrNotFound
	}
	return t, nil
}

func (m *memoryStore) StageOfTest(_ context.Context, testID string) (string, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[testID]
	if !ok || t.SessionID == "" {
		return "", "", ErrNotFound
	}
	for _, p := range m.paths {
		for _, st := range p.Stages {
			for _, se := range st.Sessions {
				if se.ID == t.SessionID {
					return st.ID, p.ID, nil
				}
			}
		}
	}
	return "", "", ErrNotFound
}

// validateStageOrder checks the order numbers form the exact sequence 1..N.
func validateStageOrder(p LearningPath) error {
	seen := make(map[int]bool, len(p.Stages))
	for _, st := range p.Stages {
		if st.OrderNumber < 1 || st.OrderNumber > len(p.Stages) || seen[st.OrderNumber] {
			return ErrBadStageOrder
		}
		seen[st.OrderNumber] = true
	}
	return nil
}

func sortPath(p *LearningPath) {
	sort.Slice(p.Stages, func(i, j int) bool {
		return p.Stages[i].OrderNumber < p.Stages[j].OrderNumber
	})
	for i := range p.Stages {
		ss := p.Stages[i].Sessions
		sort.Slice(ss, func(a, b int) bool { return ss[a].OrderNumber < ss[b].OrderNumber })
	}
}
