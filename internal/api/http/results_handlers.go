package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pathforge/pathforge/internal/rbac"
	"github.com/pathforge/pathforge/internal/results"
)

type resultsView struct {
	TraineeID string               `json:"trainee_id"`
	Summary   results.Summary      `json:"summary"`
	Results   []results.TestResult `json:"results"`
}

// MyResultsHandler is the trainee self-view: raw attempt rows plus the
// aggregate summary.
func MyResultsHandler(store results.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traineeID := rbac.SubjectFromContext(r.Context())
		serveResults(w, r, store, traineeID)
	}
}

// TraineeResultsHandler is the mentor/manager dashboard view of one trainee.
func TraineeResultsHandler(store results.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveResults(w, r, store, chi.URLParam(r, "traineeID"))
	}
}

func serveResults(w http.ResponseWriter, r *http.Request, store results.Store, traineeID string) {
	rows, err := store.ByUser(r.Context(), traineeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsView{
		TraineeID: traineeID,
		Summary:   results.Aggregate(rows),
		Results:   rows,
	})
}
