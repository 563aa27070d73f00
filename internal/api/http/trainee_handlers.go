package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pathforge/pathforge/internal/curriculum"
	"github.com/pathforge/pathforge/internal/progress"
	"github.com/pathforge/pathforge/internal/rbac"
)

// GetTestHandler serves the test without answer keys. Mentors wanting keys
// read the authoring surface, not this one.
func GetTestHandler(store curriculum.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetTest(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, curriculum.Sanitize(t))
	}
}

// InstanceStatusHandler renders the progress tree for any instance; the
// route is mentor-gated, trainees use MyStatusHandler.
func InstanceStatusHandler(tracker *progress.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := tracker.ComputeStatus(r.Context(), chi.URLParam(r, "instanceID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// MyStatusHandler resolves the caller's active instance and renders its tree.
func MyStatusHandler(tracker *progress.Tracker, store progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traineeID := rbac.SubjectFromContext(r.Context())
		inst, err := store.ActiveInstance(r.Context(), traineeID)
		if errors.Is(err, progress.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"assigned": false})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		st, err := tracker.ComputeStatus(r.Context(), inst.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"assigned": true, "status": st})
	}
}
