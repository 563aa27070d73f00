package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pathforge/pathforge/internal/audit"
	"github.com/pathforge/pathforge/internal/curriculum"
	"github.com/pathforge/pathforge/internal/results"
)

var ErrStageNotInPath = errors.New("stage does not belong to the path")

// ResultSource reads finished attempts for status derivation.
type ResultSource interface {
	ByUser(ctx context.Context, userID string) ([]results.TestResult, error)
}

// Tracker owns per-trainee progression state. Stage transitions Closed→Open
// only through explicit mentor action (or the first stage at assignment);
// Open→Completed is derived on every read, never persisted.
type Tracker struct {
	curriculum curriculum.Store
	store      Store
	results    ResultSource
	events     audit.Sink
	now        func() time.Time
}

func NewTracker(cs curriculum.Store, ps Store, rs ResultSource, events audit.Sink) *Tracker {
	return &Tracker{curriculum: cs, store: ps, results: rs, events: events, now: time.Now}
}

// AssignPath creates the trainee's path instance with stage progress rows for
// every stage: the first one opened, the rest closed. A trainee with an active
// instance cannot be assigned again.
func (t *Tracker) AssignPath(ctx context.Context, traineeID, pathID, assignedBy string) (Instance, error) {
	path, err := t.curriculum.GetPath(ctx, pathID)
	if err != nil {
		return Instance{}, fmt.Errorf("load path: %w", err)
	}

	inst := Instance{
		ID:         uuid.NewString(),
		TraineeID:  traineeID,
		PathID:     pathID,
		AssignedBy: assignedBy,
		IsActive:   true,
		CreatedAt:  t.now().Unix(),
	}
	rows := make([]StageProgress, 0, len(path.Stages))
	for i, st := range path.Stages {
		sp := StageProgress{
			ID:         uuid.NewString(),
			InstanceID: inst.ID,
			StageID:    st.ID,
		}
		if i == 0 {
			sp.IsOpened = true
			sp.OpenedBy = assignedBy
			sp.OpenedAt = inst.CreatedAt
		}
		rows = append(rows, sp)
	}
	if err := t.store.CreateInstance(ctx, inst, rows); err != nil {
		return Instance{}, err
	}
	audit.Record(ctx, t.events, audit.TypePathAssigned, inst.ID, inst)
	return inst, nil
}

// OpenStage flips a stage open. Re-opening an already-open stage is a no-op
// so retried UI actions stay harmless.
func (t *Tracker) OpenStage(ctx context.Context, instanceID, stageID, openedBy string) error {
	inst, err := t.store.GetInstance(ctx, instanceID)
	if err != nil {
		return err
	}
	path, err := t.curriculum.GetPath(ctx, inst.PathID)
	if err != nil {
		return fmt.Errorf("load path: %w", err)
	}
	found := false
	for _, st := range path.Stages {
		if st.ID == stageID {
			found = true
			break
		}
	}
	if !found {
		return ErrStageNotInPath
	}
	if err := t.store.MarkStageOpened(ctx, instanceID, stageID, openedBy, t.now().Unix()); err != nil {
		return err
	}
	audit.Record(ctx, t.events, audit.TypeStageOpened, instanceID,
		map[string]string{"stage_id": stageID, "opened_by": openedBy})
	return nil
}

// IsStageOpen reports openness for the trainee's active instance. Absent
// instance or progress rows read as closed, not as errors.
func (t *Tracker) IsStageOpen(ctx context.Context, traineeID, stageID string) (bool, error) {
	inst, err := t.store.ActiveInstance(ctx, traineeID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	rows, err := t.store.StageProgressByInstance(ctx, inst.ID)
	if err != nil {
		return false, err
	}
	for _, sp := range rows {
		if sp.StageID == stageID {
			return sp.IsOpened, nil
		}
	}
	return false, nil
}

// ComputeStatus builds the full status tree for one instance. Pure read.
// Completion is recomputed here every time: a stage is completed only while
// it is open and every test of every session has a passing result; a session
// with no tests is never completed. Missing progress rows count as closed.
func (t *Tracker) ComputeStatus(ctx context.Context, instanceID string) (PathStatus, error) {
	inst, err := t.store.GetInstance(ctx, instanceID)
	if err != nil {
		return PathStatus{}, err
	}
	path, err := t.curriculum.GetPath(ctx, inst.PathID)
	if err != nil {
		return PathStatus{}, fmt.Errorf("load path: %w", err)
	}
	rows, err := t.store.StageProgressByInstance(ctx, instanceID)
	if err != nil {
		return PathStatus{}, err
	}
	opened := make(map[string]bool, len(rows))
	for _, sp := range rows {
		opened[sp.StageID] = sp.IsOpened
	}

	all, err := t.results.ByUser(ctx, inst.TraineeID)
	if err != nil {
		return PathStatus{}, fmt.Errorf("load results: %w", err)
	}
	byTest := map[string][]results.TestResult{}
	for _, r := range all {
		byTest[r.TestID] = append(byTest[r.TestID], r)
	}

	out := PathStatus{
		InstanceID: instanceID,
		TraineeID:  inst.TraineeID,
		PathID:     path.ID,
		PathName:   path.Name,
	}
	for _, st := range path.Stages {
		stageOpen := opened[st.ID]
		ss := StageStatus{
			StageID:     st.ID,
			Name:        st.Name,
			OrderNumber: st.OrderNumber,
			Opened:      stageOpen,
		}
		for _, se := range st.Sessions {
			ses := SessionStatus{
				SessionID:   se.ID,
				Name:        se.Name,
				OrderNumber: se.OrderNumber,
				Opened:      stageOpen,
				Tests:       make([]TestStatus, 0, len(se.Tests)),
			}
			allPassed := len(se.Tests) > 0
			for _, test := range se.Tests {
				ts := testStatus(test, byTest[test.ID], stageOpen)
				if !ts.Passed {
					allPassed = false
				}
				ses.Tests = append(ses.Tests, ts)
			}
			// absence of tests is not a vacuous pass
			ses.Completed = stageOpen && allPassed
			ss.Sessions = append(ss.Sessions, ses)
		}
		ss.Completed = stageOpen && len(ss.Sessions) > 0
		for _, ses := range ss.Sessions {
			if !ses.Completed {
				ss.Completed = false
				break
			}
		}
		out.Stages = append(out.Stages, ss)
	}

	if path.AttestationTestID != "" {
		unlocked := len(out.Stages) > 0
		for _, ss := range out.Stages {
			if !ss.Completed {
				unlocked = false
				break
			}
		}
		at, err := t.curriculum.GetTest(ctx, path.AttestationTestID)
		if err != nil && !errors.Is(err, curriculum.ErrNotFound) {
			return PathStatus{}, fmt.Errorf("load attestation test: %w", err)
		}
		if err == nil {
			ts := testStatus(at, byTest[at.ID], unlocked)
			out.Attestation = &ts
		}
	}
	return out, nil
}

// testStatus renders one test glyph. A pass is only ever shown while the
// enclosing stage is open, even when a passing result row exists.
func testStatus(test curriculum.Test, rows []results.TestResult, stageOpen bool) TestStatus {
	ts := TestStatus{TestID: test.ID, Name: test.Name}
	if !stageOpen {
		return ts
	}
	ts.Attempted = len(rows) > 0
	best := -1.0
	for _, r := range rows {
		if r.IsPassed {
			ts.Passed = true
		}
		if r.Score > best {
			best = r.Score
			ts.Percentage, ts.HasPercentage = results.Percentage(r.Score, r.MaxPossibleScore)
		}
	}
	return ts
}
