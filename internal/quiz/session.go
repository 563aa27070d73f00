package quiz

import (
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/pathforge/pathforge/internal/curriculum"
	"github.com/pathforge/pathforge/internal/results"
)

type State int

const (
	StateCreated State = iota
	StateInProgress
	StateFinished
)

var (
	ErrNoQuestions     = errors.New("test has no questions")
	ErrAlreadyAnswered = errors.New("question already answered; advance first")
	ErrNotAnswered     = errors.New("current question not answered yet")
	ErrSessionFinished = errors.New("session already finished")
	ErrSessionActive   = errors.New("session still has unanswered questions")
)

// Session is one quiz attempt: an explicit value object handed between calls
// rather than global conversational state. Question order and option order
// are fixed once at start and never reshuffled mid-attempt.
type Session struct {
	ID        string
	TraineeID string
	TestID    string

	mu        sync.Mutex
	test      curriculum.Test
	questions []curriculum.Question // presentation order, options permuted
	idx       int
	answered  bool
	state     State
	startedAt time.Time
	shownAt   time.Time
	details   []results.AnswerDetail
	wrong     []results.WrongAnswer
	now       func() time.Time
}

func newSession(id, traineeID string, test curriculum.Test, rng *rand.Rand, now func() time.Time) (*Session, error) {
	if len(test.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	qs := make([]curriculum.Question, len(test.Questions))
	copy(qs, test.Questions)
	if test.ShuffleQuestions {
		rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
		for i := range qs {
			if qs[i].Type.HasOptions() {
				opts := make([]string, len(qs[i].Options))
				copy(opts, qs[i].Options)
				rng.Shuffle(len(opts), func(a, b int) { opts[a], opts[b] = opts[b], opts[a] })
				qs[i].Options = opts
			}
		}
	}
	start := now()
	return &Session{
		ID:        id,
		TraineeID: traineeID,
		TestID:    test.ID,
		test:      test,
		questions: qs,
		state:     StateCreated,
		startedAt: start,
		shownAt:   start,
		now:       now,
	}, nil
}

// Current returns the question now presented, answer key stripped. Viewing
// the first question moves a fresh session into progress.
func (s *Session) Current() (curriculum.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinished || s.idx >= len(s.questions) {
		return curriculum.Question{}, false
	}
	s.state = StateInProgress
	q := s.questions[s.idx]
	q.CorrectAnswer = ""
	return q, true
}

// Position reports 1-based progress through the attempt.
func (s *Session) Position() (current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx + 1, len(s.questions)
}

// SubmitAnswer resolves and checks raw input for the current question.
// ErrInvalidAnswer leaves the session untouched so the question can be
// re-prompted; any other state is recorded exactly once.
func (s *Session) SubmitAnswer(raw string) (correct bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinished {
		return false, ErrSessionFinished
	}
	s.state = StateInProgress
	if s.answered {
		return false, ErrAlreadyAnswered
	}
	q := s.questions[s.idx]
	ans, err := ParseAnswer(q, raw)
	if err != nil {
		return false, err
	}
	correct, err = checkAnswer(q, ans)
	if err != nil {
		return false, err
	}

	spent := s.now().Sub(s.shownAt).Seconds()
	s.details = append(s.details, results.AnswerDetail{
		QuestionID: q.ID,
		Answer:     ans.String(),
		IsCorrect:  correct,
		TimeSpent:  spent,
	})
	if !correct {
		s.wrong = append(s.wrong, results.WrongAnswer{
			Question:      q.Prompt,
			UserAnswer:    ans.String(),
			CorrectAnswer: readableKey(q),
		})
	}
	s.answered = true
	return correct, nil
}

// Advance moves to the next question, or reports the attempt done when the
// last answer is in. The caller then finishes the session.
func (s *Session) Advance() (done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinished {
		return false, ErrSessionFinished
	}
	if !s.answered {
		return false, ErrNotAnswered
	}
	s.idx++
	s.answered = false
	if s.idx >= len(s.questions) {
		return true, nil
	}
	s.shownAt = s.now()
	return false, nil
}

// result scores the attempt and freezes the session. Score is clamped at
// zero: penalties never drive a total negative.
func (s *Session) result(id string) (results.TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinished {
		return results.TestResult{}, ErrSessionFinished
	}
	if s.idx < len(s.questions) {
		return results.TestResult{}, ErrSessionActive
	}

	score := 0.0
	maxPossible := 0.0
	for i, q := range s.questions {
		maxPossible += q.Points
		if s.details[i].IsCorrect {
			score += q.Points
		} else {
			score -= q.PenaltyPoints
		}
	}
	if score < 0 {
		score = 0
	}
	s.state = StateFinished

	return results.TestResult{
		ID:               id,
		UserID:           s.TraineeID,
		TestID:           s.TestID,
		Score:            score,
		MaxPossibleScore: maxPossible,
		IsPassed:         score >= s.test.ThresholdScore,
		StartTime:        s.startedAt.Unix(),
		EndTime:          s.now().Unix(),
		AnswersDetails:   s.details,
		WrongAnswers:     s.wrong,
	}, nil
}

// readableKey renders the answer key for review, multiple_choice keys
// flattened to comma-joined text.
func readableKey(q curriculum.Question) string {
	if q.Type != curriculum.TypeMultipleChoice {
		return q.CorrectAnswer
	}
	var key []string
	if err := json.Unmarshal([]byte(q.CorrectAnswer), &key); err != nil {
		return q.CorrectAnswer
	}
	return strings.Join(key, ", ")
}
