package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pathforge/pathforge/internal/curriculum"
	"github.com/pathforge/pathforge/internal/quiz"
	"github.com/pathforge/pathforge/internal/rbac"
)

type questionView struct {
	AttemptID string              `json:"attempt_id"`
	Current   int                 `json:"current"`
	Total     int                 `json:"total"`
	Question  curriculum.Question `json:"question"`
}

func questionViewOf(s *quiz.Session) (questionView, bool) {
	q, ok := s.Current()
	if !ok {
		return questionView{}, false
	}
	cur, total := s.Position()
	return questionView{AttemptID: s.ID, Current: cur, Total: total, Question: q}, true
}

// StartAttemptHandler opens a new attempt for the caller and returns the
// first question as presented (shuffled order is fixed here for the whole
// attempt).
func StartAttemptHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TestID string `json:"test_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TestID == "" {
			http.Error(w, "test_id required", http.StatusBadRequest)
			return
		}
		s, err := engine.Start(r.Context(), rbac.SubjectFromContext(r.Context()), req.TestID)
		if err != nil {
			writeError(w, err)
			return
		}
		v, _ := questionViewOf(s)
		writeJSON(w, http.StatusCreated, v)
	}
}

func CurrentQuestionHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := attemptForCaller(engine, r)
		if err != nil {
			writeError(w, err)
			return
		}
		v, ok := questionViewOf(s)
		if !ok {
			writeError(w, quiz.ErrSessionFinished)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// SubmitAnswerHandler records the answer and advances. An invalid answer
// re-prompts the same question (422); the last answer finishes the attempt
// and returns the persisted result.
func SubmitAnswerHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := attemptForCaller(engine, r)
		if err != nil {
			writeError(w, err)
			return
		}
		var req struct {
			Answer string `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		correct, err := s.SubmitAnswer(req.Answer)
		if err != nil {
			writeError(w, err)
			return
		}
		done, err := s.Advance()
		if err != nil {
			writeError(w, err)
			return
		}
		if done {
			res, err := engine.Finish(r.Context(), s.ID)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"correct": correct, "finished": true, "result": res,
			})
			return
		}
		v, _ := questionViewOf(s)
		writeJSON(w, http.StatusOK, map[string]any{
			"correct": correct, "finished": false, "next": v,
		})
	}
}

// AbortAttemptHandler drops the attempt; nothing is persisted and no budget
// is consumed.
func AbortAttemptHandler(engine *quiz.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := attemptForCaller(engine, r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := engine.Abort(s.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// attemptForCaller fetches the session and refuses cross-trainee access.
func attemptForCaller(engine *quiz.Engine, r *http.Request) (*quiz.Session, error) {
	s, err := engine.Get(chi.URLParam(r, "attemptID"))
	if err != nil {
		return nil, err
	}
	if s.TraineeID != rbac.SubjectFromContext(r.Context()) {
		return nil, quiz.ErrAttemptNotFound
	}
	return s, nil
}
