package access

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// Grant is an explicit, path-independent permission for a trainee to take a
// specific test. Used for ad-hoc tests that live outside any learning path.
type Grant struct {
	ID        string `json:"id"`
	TraineeID string `json:"trainee_id"`
	TestID    string `json:"test_id"`
	GrantedBy string `json:"granted_by"`
	IsActive  bool   `json:"is_active"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type GrantStore interface {
	Put(ctx context.Context, g Grant) error
	HasActive(ctx context.Context, traineeID, testID string) (bool, error)
	// Revoke deactivates all grants for the pair. Missing grants are a no-op.
	Revoke(ctx context.Context, traineeID, testID string) error
}

type memoryGrants struct {
	mu     sync.RWMutex
	grants map[string]Grant
}

func NewInMemoryGrantStore() GrantStore {
	return &memoryGrants{grants: map[string]Grant{}}
}

func (m *memoryGrants) Put(_ context.Context, g Grant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants[g.ID] = g
	return nil
}

func (m *memoryGrants) HasActive(_ context.Context, traineeID, testID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.grants {
		if g.TraineeID == traineeID && g.TestID == testID && g.IsActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryGrants) Revoke(_ context.Context, traineeID, testID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, g := range m.grants {
		if g.TraineeID == traineeID && g.TestID == testID {
			g.IsActive = false
			m.grants[id] = g
		}
	}
	return nil
}

type SQLGrantStore struct {
	db *sql.DB
}

func NewSQLGrantStore(db *sql.DB) *SQLGrantStore { return &SQLGrantStore{db: db} }

func (s *SQLGrantStore) Put(ctx context.Context, g Grant) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO test_access_grants
		(id,trainee_id,test_id,granted_by,is_active,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET is_active=EXCLUDED.is_active`,
		g.ID, g.TraineeID, g.TestID, g.GrantedBy, g.IsActive, time.Now().Unix())
	return err
}

func (s *SQLGrantStore) HasActive(ctx context.Context, traineeID, testID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM test_access_grants
		WHERE trainee_id=$1 AND test_id=$2 AND is_active LIMIT 1`,
		traineeID, testID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLGrantStore) Revoke(ctx context.Context, traineeID, testID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE test_access_grants SET is_active=FALSE WHERE trainee_id=$1 AND test_id=$2`,
		traineeID, testID)
	return err
}
