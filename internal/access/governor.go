package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/pathforge/pathforge/internal/curriculum"
)

// PermTakeTests is the capability consulted before any attempt starts.
const PermTakeTests = "test:take"

// Reason explains a gate decision. Remediation differs per reason: missing
// permission is an admin matter, a missing grant is a mentor matter, and an
// exhausted budget never resets.
type Reason string

const (
	ReasonOK                Reason = "ok"
	ReasonNoPermission      Reason = "no_permission"
	ReasonNoAccessGrant     Reason = "no_access_grant"
	ReasonAttemptsExhausted Reason = "attempts_exhausted"
)

type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
}

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrAccessNotGranted  = errors.New("access not granted")
	ErrAttemptsExhausted = errors.New("attempts exhausted")
)

// Err maps a denial to its sentinel error, nil when allowed.
func (d Decision) Err() error {
	switch d.Reason {
	case ReasonNoPermission:
		return ErrPermissionDenied
	case ReasonNoAccessGrant:
		return ErrAccessNotGranted
	case ReasonAttemptsExhausted:
		return ErrAttemptsExhausted
	}
	return nil
}

// PermissionSource is the external RBAC/identity collaborator.
type PermissionSource interface {
	HasPermission(ctx context.Context, userID, perm string) (bool, error)
}

// StageOpenness answers whether a stage is currently open for a trainee's
// active path instance. Owned by the progression tracker.
type StageOpenness interface {
	IsStageOpen(ctx context.Context, traineeID, stageID string) (bool, error)
}

// AttemptCounter counts finished attempts; aborted attempts never appear.
type AttemptCounter interface {
	CountAttempts(ctx context.Context, userID, testID string) (int, error)
}

// TestLoader resolves tests and their containing stage.
type TestLoader interface {
	GetTest(ctx context.Context, id string) (curriculum.Test, error)
	StageOfTest(ctx context.Context, testID string) (stageID, pathID string, err error)
}

// Governor decides whether a trainee may start an attempt on a test.
// Pure read: no side effects, no state of its own.
type Governor struct {
	perms    PermissionSource
	grants   GrantStore
	tests    TestLoader
	openness StageOpenness
	attempts AttemptCounter
}

func NewGovernor(perms PermissionSource, grants GrantStore, tests TestLoader,
	openness StageOpenness, attempts AttemptCounter) *Governor {
	return &Governor{perms: perms, grants: grants, tests: tests,
		openness: openness, attempts: attempts}
}

// CanAttempt runs the gate checks in order: capability, access (grant or open
// stage), attempt budget. A prior pass does not lock the test; re-attempts are
// allowed while budget remains.
func (g *Governor) CanAttempt(ctx context.Context, traineeID, testID string) (Decision, error) {
	ok, err := g.perms.HasPermission(ctx, traineeID, PermTakeTests)
	if err != nil {
		return Decision{}, fmt.Errorf("check permission: %w", err)
	}
	if !ok {
		return Decision{Reason: ReasonNoPermission}, nil
	}

	allowed, err := g.hasAccess(ctx, traineeID, testID)
	if err != nil {
		return Decision{}, err
	}
	if !allowed {
		return Decision{Reason: ReasonNoAccessGrant}, nil
	}

	t, err := g.tests.GetTest(ctx, testID)
	if err != nil {
		return Decision{}, fmt.Errorf("load test: %w", err)
	}
	if t.MaxAttempts > 0 {
		n, err := g.attempts.CountAttempts(ctx, traineeID, testID)
		if err != nil {
			return Decision{}, fmt.Errorf("count attempts: %w", err)
		}
		if n >= t.MaxAttempts {
			return Decision{Reason: ReasonAttemptsExhausted}, nil
		}
	}
	return Decision{Allowed: true, Reason: ReasonOK}, nil
}

func (g *Governor) hasAccess(ctx context.Context, traineeID, testID string) (bool, error) {
	granted, err := g.grants.HasActive(ctx, traineeID, testID)
	if err != nil {
		return false, fmt.Errorf("check grant: %w", err)
	}
	if granted {
		return true, nil
	}
	stageID, _, err := g.tests.StageOfTest(ctx, testID)
	if errors.Is(err, curriculum.ErrNotFound) {
		// ad-hoc test with no containing stage: only a grant can open it
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("resolve stage: %w", err)
	}
	open, err := g.openness.IsStageOpen(ctx, traineeID, stageID)
	if err != nil {
		return false, fmt.Errorf("check stage: %w", err)
	}
	return open, nil
}
