package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/pathforge/pathforge/internal/access"
	"github.com/pathforge/pathforge/internal/audit"
	"github.com/pathforge/pathforge/internal/curriculum"
	"github.com/pathforge/pathforge/internal/rbac"
	"github.com/pathforge/pathforge/internal/results"
)

func seedEngine(t *testing.T, test curriculum.Test) (*Engine, access.GrantStore, *audit.MemorySink) {
	t.Helper()
	ctx := context.Background()

	tests := curriculum.NewInMemoryStore()
	if err := tests.PutTest(ctx, test); err != nil {
		t.Fatalf("put test: %v", err)
	}
	grants := access.NewInMemoryGrantStore()
	if err := grants.Put(ctx, access.Grant{
		ID: "g1", TraineeID: "trainee-1", TestID: test.ID, GrantedBy: "mentor-1", IsActive: true,
	}); err != nil {
		t.Fatalf("put grant: %v", err)
	}
	res := results.NewInMemoryStore()
	perms := rbac.NewStaticPermissionSource(map[string]string{
		"trainee-1": "trainee",
		"mentor-1":  "mentor",
	})
	gov := access.NewGovernor(perms, grants, tests, closedStages{}, res)
	sink := &audit.MemorySink{}
	return NewEngine(gov, tests, res, sink), grants, sink
}

// closedStages stands in for the progression tracker: nothing open, so all
// access flows through grants.
type closedStages struct{}

func (closedStages) IsStageOpen(context.Context, string, string) (bool, error) {
	return false, nil
}

func oneQuestionTest(maxAttempts int) curriculum.Test {
	return curriculum.Test{
		ID:             "t1",
		Name:           "Single question",
		ThresholdScore: 1,
		MaxAttempts:    maxAttempts,
		Questions: []curriculum.Question{
			{ID: "q1", Type: curriculum.TypeText, Prompt: "word?", CorrectAnswer: "go", Points: 1},
		},
	}
}

func runAttempt(t *testing.T, e *Engine, answer string) results.TestResult {
	t.Helper()
	ctx := context.Background()
	s, err := e.Start(ctx, "trainee-1", "t1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.SubmitAnswer(answer); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if done, err := s.Advance(); err != nil || !done {
		t.Fatalf("Advance: done=%v err=%v", done, err)
	}
	r, err := e.Finish(ctx, s.ID)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return r
}

func TestAttemptBudgetEnforced(t *testing.T) {
	e, _, _ := seedEngine(t, oneQuestionTest(2))
	ctx := context.Background()

	runAttempt(t, e, "wrong")
	runAttempt(t, e, "go")

	_, err := e.Start(ctx, "trainee-1", "t1")
	if !errors.Is(err, access.ErrAttemptsExhausted) {
		t.Fatalf("third start: got %v, want ErrAttemptsExhausted", err)
	}
}

func TestAbortDoesNotConsumeBudget(t *testing.T) {
	e, _, _ := seedEngine(t, oneQuestionTest(1))
	ctx := context.Background()

	s, err := e.Start(ctx, "trainee-1", "t1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Abort(s.ID); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if _, err := e.Get(s.ID); !errors.Is(err, ErrAttemptNotFound) {
		t.Fatalf("aborted session still registered: %v", err)
	}

	// The single budgeted attempt is still available.
	r := runAttempt(t, e, "go")
	if !r.IsPassed {
		t.Fatalf("expected pass after abort, got %+v", r)
	}
}

func TestConcurrentStartGuard(t *testing.T) {
	e, _, _ := seedEngine(t, oneQuestionTest(0))
	ctx := context.Background()

	s, err := e.Start(ctx, "trainee-1", "t1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.Start(ctx, "trainee-1", "t1"); !errors.Is(err, ErrAttemptInProgress) {
		t.Fatalf("second start: got %v, want ErrAttemptInProgress", err)
	}
	// Finishing releases the guard.
	if _, err := s.SubmitAnswer("go"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if _, err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, err := e.Finish(ctx, s.ID); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := e.Start(ctx, "trainee-1", "t1"); err != nil {
		t.Fatalf("start after finish: %v", err)
	}
}

func TestDeniedWithoutGrant(t *testing.T) {
	e, grants, _ := seedEngine(t, oneQuestionTest(0))
	ctx := context.Background()

	if err := grants.Revoke(ctx, "trainee-1", "t1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := e.Start(ctx, "trainee-1", "t1"); !errors.Is(err, access.ErrAccessNotGranted) {
		t.Fatalf("got %v, want ErrAccessNotGranted", err)
	}
}

func TestFinishEmitsAuditEvent(t *testing.T) {
	e, _, sink := seedEngine(t, oneQuestionTest(0))
	runAttempt(t, e, "go")

	if len(sink.Events) != 1 || sink.Events[0].Type != audit.TypeAttemptFinished {
		t.Fatalf("audit events = %+v, want one AttemptFinished", sink.Events)
	}
}
