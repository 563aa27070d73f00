package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pathforge/pathforge/internal/access"
	"github.com/pathforge/pathforge/internal/audit"
	"github.com/pathforge/pathforge/internal/curriculum"
	"github.com/pathforge/pathforge/internal/progress"
	"github.com/pathforge/pathforge/internal/rbac"
)

func CreatePathHandler(store curriculum.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p curriculum.LearningPath
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		for i := range p.Stages {
			if p.Stages[i].ID == "" {
				p.Stages[i].ID = uuid.NewString()
			}
			for j := range p.Stages[i].Sessions {
				if p.Stages[i].Sessions[j].ID == "" {
					p.Stages[i].Sessions[j].ID = uuid.NewString()
				}
			}
		}
		if err := store.PutPath(r.Context(), p); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func GetPathHandler(store curriculum.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetPath(r.Context(), chi.URLParam(r, "pathID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func ListPathsHandler(store curriculum.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := store.ListPaths(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ps)
	}
}

func CreateTestHandler(store curriculum.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t curriculum.Test
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		for i, q := range t.Questions {
			if !q.Type.Valid() {
				http.Error(w, "invalid question type: "+string(q.Type), http.StatusBadRequest)
				return
			}
			if q.Type.HasOptions() && len(q.Options) == 0 {
				http.Error(w, "options required for choice questions", http.StatusBadRequest)
				return
			}
			if t.Questions[i].ID == "" {
				t.Questions[i].ID = uuid.NewString()
			}
			if t.Questions[i].Number == 0 {
				t.Questions[i].Number = i + 1
			}
		}
		if err := store.PutTest(r.Context(), t); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, curriculum.Sanitize(t))
	}
}

func AssignPathHandler(tracker *progress.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traineeID := chi.URLParam(r, "traineeID")
		var req struct {
			PathID string `json:"path_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PathID == "" {
			http.Error(w, "path_id required", http.StatusBadRequest)
			return
		}
		inst, err := tracker.AssignPath(r.Context(), traineeID, req.PathID, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, inst)
	}
}

func OpenStageHandler(tracker *progress.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instanceID := chi.URLParam(r, "instanceID")
		stageID := chi.URLParam(r, "stageID")
		err := tracker.OpenStage(r.Context(), instanceID, stageID, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GrantAccessHandler(grants access.GrantStore, events audit.Sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TraineeID string `json:"trainee_id"`
			TestID    string `json:"test_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TraineeID == "" || req.TestID == "" {
			http.Error(w, "trainee_id and test_id required", http.StatusBadRequest)
			return
		}
		g := access.Grant{
			ID:        uuid.NewString(),
			TraineeID: req.TraineeID,
			TestID:    req.TestID,
			GrantedBy: rbac.SubjectFromContext(r.Context()),
			IsActive:  true,
			CreatedAt: time.Now().Unix(),
		}
		if err := grants.Put(r.Context(), g); err != nil {
			writeError(w, err)
			return
		}
		audit.Record(r.Context(), events, audit.TypeAccessGranted, g.ID, g)
		writeJSON(w, http.StatusCreated, g)
	}
}

func RevokeAccessHandler(grants access.GrantStore, events audit.Sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traineeID := chi.URLParam(r, "traineeID")
		testID := chi.URLParam(r, "testID")
		if err := grants.Revoke(r.Context(), traineeID, testID); err != nil {
			writeError(w, err)
			return
		}
		audit.Record(r.Context(), events, audit.TypeAccessRevoked, traineeID+"|"+testID, nil)
		w.WriteHeader(http.StatusNoContent)
	}
}
