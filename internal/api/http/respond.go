package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pathforge/pathforge/internal/access"
	"github.com/pathforge/pathforge/internal/curriculum"
	"github.com/pathforge/pathforge/internal/progress"
	"github.com/pathforge/pathforge/internal/quiz"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps core errors to HTTP statuses. Access denials carry a
// machine-readable reason since remediation differs per reason.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, access.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, errBody(err, string(access.ReasonNoPermission)))
	case errors.Is(err, access.ErrAccessNotGranted):
		writeJSON(w, http.StatusForbidden, errBody(err, string(access.ReasonNoAccessGrant)))
	case errors.Is(err, access.ErrAttemptsExhausted):
		writeJSON(w, http.StatusForbidden, errBody(err, string(access.ReasonAttemptsExhausted)))
	case errors.Is(err, quiz.ErrInvalidAnswer):
		writeJSON(w, http.StatusUnprocessableEntity, errBody(err, "invalid_answer"))
	case errors.Is(err, quiz.ErrNoQuestions):
		writeJSON(w, http.StatusConflict, errBody(err, "no_questions"))
	case errors.Is(err, quiz.ErrAttemptInProgress):
		writeJSON(w, http.StatusConflict, errBody(err, "attempt_in_progress"))
	case errors.Is(err, progress.ErrAlreadyAssigned):
		writeJSON(w, http.StatusConflict, errBody(err, "already_assigned"))
	case errors.Is(err, progress.ErrStageNotInPath):
		writeJSON(w, http.StatusBadRequest, errBody(err, "stage_not_in_path"))
	case errors.Is(err, curriculum.ErrBadStageOrder):
		writeJSON(w, http.StatusBadRequest, errBody(err, "bad_stage_order"))
	case errors.Is(err, curriculum.ErrNotFound),
		errors.Is(err, progress.ErrNotFound),
		errors.Is(err, quiz.ErrAttemptNotFound):
		writeJSON(w, http.StatusNotFound, errBody(err, "not_found"))
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func errBody(err error, reason string) map[string]string {
	return map[string]string{"error": err.Error(), "reason": reason}
}
