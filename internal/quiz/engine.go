package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pathforge/pathforge/internal/access"
	"github.com/pathforge/pathforge/internal/audit"
	"github.com/pathforge/pathforge/internal/curriculum"
	"github.com/pathforge/pathforge/internal/results"
)

var (
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrAttemptInProgress = errors.New("an attempt on this test is already in progress")
)

// TestSource loads the full test, answer keys included.
type TestSource interface {
	GetTest(ctx context.Context, id string) (curriculum.Test, error)
}

// Engine owns the in-flight session registry. Sessions live only in memory;
// the single durable write is the TestResult committed at Finish. One
// in-flight attempt per (trainee, test) is enforced here so two concurrent
// Starts cannot double-count the budget.
type Engine struct {
	governor *access.Governor
	tests    TestSource
	results  results.Store
	events   audit.Sink

	mu       sync.Mutex
	sessions map[string]*Session
	inflight map[string]string // traineeID|testID -> attempt id

	now     func() time.Time
	newSeed func() int64
}

func NewEngine(gov *access.Governor, tests TestSource, res results.Store, events audit.Sink) *Engine {
	return &Engine{
		governor: gov,
		tests:    tests,
		results:  res,
		events:   events,
		sessions: map[string]*Session{},
		inflight: map[string]string{},
		now:      time.Now,
		newSeed:  func() int64 { return time.Now().UnixNano() },
	}
}

func inflightKey(traineeID, testID string) string { return traineeID + "|" + testID }

// Start gates the attempt through the governor, loads the test and registers
// a fresh session. Shuffling is seeded per attempt.
func (e *Engine) Start(ctx context.Context, traineeID, testID string) (*Session, error) {
	d, err := e.governor.CanAttempt(ctx, traineeID, testID)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return nil, d.Err()
	}

	t, err := e.tests.GetTest(ctx, testID)
	if errors.Is(err, curriculum.ErrNotFound) {
		return nil, fmt.Errorf("test %s: %w", testID, err)
	}
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	key := inflightKey(traineeID, testID)
	if _, busy := e.inflight[key]; busy {
		return nil, ErrAttemptInProgress
	}
	rng := rand.New(rand.NewSource(e.newSeed()))
	s, err := newSession(uuid.NewString(), traineeID, t, rng, e.now)
	if err != nil {
		return nil, err
	}
	e.sessions[s.ID] = s
	e.inflight[key] = s.ID
	return s, nil
}

// Get returns a live session by attempt id.
func (e *Engine) Get(attemptID string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[attemptID]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return s, nil
}

// Finish scores the attempt and persists its TestResult: the sole commit
// point. The session is dropped either way; a persistence failure loses the
// attempt and is surfaced to the caller.
func (e *Engine) Finish(ctx context.Context, attemptID string) (results.TestResult, error) {
	s, err := e.Get(attemptID)
	if err != nil {
		return results.TestResult{}, err
	}
	r, err := s.result(attemptID)
	if err != nil {
		return results.TestResult{}, err
	}

	e.release(s)
	if err := e.results.Insert(ctx, r); err != nil {
		return results.TestResult{}, fmt.Errorf("persist result: %w", err)
	}
	audit.Record(ctx, e.events, audit.TypeAttemptFinished, r.ID, map[string]any{
		"user_id": r.UserID, "test_id": r.TestID, "score": r.Score, "is_passed": r.IsPassed,
	})
	return r, nil
}

// Abort discards an unfinished session. Nothing is persisted and the attempt
// never counts toward max_attempts.
func (e *Engine) Abort(attemptID string) error {
	s, err := e.Get(attemptID)
	if err != nil {
		return err
	}
	e.release(s)
	return nil
}

func (e *Engine) release(s *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, s.ID)
	delete(e.inflight, inflightKey(s.TraineeID, s.TestID))
}
