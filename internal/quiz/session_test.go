package quiz

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/pathforge/pathforge/internal/curriculum"
)

func fixedNow() func() time.Time {
	t := time.Unix(1700000000, 0)
	return func() time.Time { return t }
}

func threeQuestionTest() curriculum.Test {
	return curriculum.Test{
		ID:             "t1",
		Name:           "Onboarding basics",
		ThresholdScore: 3,
		MaxScore:       4,
		Questions: []curriculum.Question{
			{ID: "q1", Number: 1, Type: curriculum.TypeSingleChoice, Prompt: "Pick one",
				Options: []string{"alpha", "beta", "gamma"}, CorrectAnswer: "beta",
				Points: 2, PenaltyPoints: 1},
			{ID: "q2", Number: 2, Type: curriculum.TypeYesNo, Prompt: "Yes?",
				CorrectAnswer: "yes", Points: 1},
			{ID: "q3", Number: 3, Type: curriculum.TypeNumber, Prompt: "How many?",
				CorrectAnswer: "42", Points: 1, PenaltyPoints: 1},
		},
	}
}

func mustSession(t *testing.T, test curriculum.Test) *Session {
	t.Helper()
	s, err := newSession("a1", "trainee-1", test, rand.New(rand.NewSource(1)), fixedNow())
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	return s
}

func answerAndAdvance(t *testing.T, s *Session, raw string) bool {
	t.Helper()
	if _, err := s.SubmitAnswer(raw); err != nil {
		t.Fatalf("SubmitAnswer(%q): %v", raw, err)
	}
	done, err := s.Advance()
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	return done
}

func TestScoringWithPenalty(t *testing.T) {
	// correct, correct, wrong => 2+1-1 = 2 < threshold 3
	s := mustSession(t, threeQuestionTest())

	answerAndAdvance(t, s, "2")   // beta
	answerAndAdvance(t, s, "yes") //
	done := answerAndAdvance(t, s, "7")
	if !done {
		t.Fatalf("expected attempt done after last question")
	}

	r, err := s.result("r1")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if r.Score != 2 {
		t.Fatalf("score = %v, want 2", r.Score)
	}
	if r.IsPassed {
		t.Fatalf("expected is_passed=false at score 2, threshold 3")
	}
	if r.MaxPossibleScore != 4 {
		t.Fatalf("max possible = %v, want 4", r.MaxPossibleScore)
	}
	if len(r.AnswersDetails) != 3 || len(r.WrongAnswers) != 1 {
		t.Fatalf("details=%d wrong=%d, want 3/1", len(r.AnswersDetails), len(r.WrongAnswers))
	}
	if r.WrongAnswers[0].Question != "How many?" || r.WrongAnswers[0].CorrectAnswer != "42" {
		t.Fatalf("unexpected wrong answer record: %+v", r.WrongAnswers[0])
	}
}

func TestScoreNeverNegative(t *testing.T) {
	test := curriculum.Test{
		ID:             "t-neg",
		ThresholdScore: 1,
		Questions: []curriculum.Question{
			{ID: "q1", Type: curriculum.TypeText, Prompt: "a", CorrectAnswer: "x", Points: 1, PenaltyPoints: 50},
			{ID: "q2", Type: curriculum.TypeText, Prompt: "b", CorrectAnswer: "y", Points: 1, PenaltyPoints: 50},
		},
	}
	s := mustSession(t, test)
	answerAndAdvance(t, s, "wrong")
	answerAndAdvance(t, s, "also wrong")
	r, err := s.result("r1")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if r.Score != 0 {
		t.Fatalf("score = %v, want clamp to 0", r.Score)
	}
}

func TestThresholdBoundaryPasses(t *testing.T) {
	test := curriculum.Test{
		ID:             "t-edge",
		ThresholdScore: 2,
		Questions: []curriculum.Question{
			{ID: "q1", Type: curriculum.TypeText, Prompt: "a", CorrectAnswer: "ok", Points: 2},
		},
	}
	s := mustSession(t, test)
	answerAndAdvance(t, s, "ok")
	r, err := s.result("r1")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if r.Score != 2 || !r.IsPassed {
		t.Fatalf("score=%v passed=%v, want exact threshold to pass", r.Score, r.IsPassed)
	}
}

func TestMultipleChoiceIndicesAndTextsEquivalent(t *testing.T) {
	test := curriculum.Test{
		ID:             "t-multi",
		ThresholdScore: 1,
		Questions: []curriculum.Question{
			{ID: "q1", Type: curriculum.TypeMultipleChoice, Prompt: "pick two",
				Options:       []string{"red", "green", "blue"},
				CorrectAnswer: `["red","blue"]`, Points: 1},
		},
	}

	byIndex := mustSession(t, test)
	correct, err := byIndex.SubmitAnswer("1, 3")
	if err != nil || !correct {
		t.Fatalf("index form: correct=%v err=%v", correct, err)
	}

	byText := mustSession(t, test)
	correct, err = byText.SubmitAnswer("BLUE, Red")
	if err != nil || !correct {
		t.Fatalf("text form: correct=%v err=%v", correct, err)
	}

	ordered := mustSession(t, test)
	correct, err = ordered.SubmitAnswer("3, 1")
	if err != nil || !correct {
		t.Fatalf("order must not matter: correct=%v err=%v", correct, err)
	}
}

func TestInvalidAnswerRepromptsSameQuestion(t *testing.T) {
	s := mustSession(t, threeQuestionTest())

	if _, err := s.SubmitAnswer("not-a-number"); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("expected ErrInvalidAnswer, got %v", err)
	}
	// Session unchanged: the valid retry still lands on question 1.
	cur, total := s.Position()
	if cur != 1 || total != 3 {
		t.Fatalf("position = %d/%d, want 1/3", cur, total)
	}
	if correct, err := s.SubmitAnswer("2"); err != nil || !correct {
		t.Fatalf("retry after invalid input: correct=%v err=%v", correct, err)
	}
}

func TestAnswerDetailsFollowPresentationOrder(t *testing.T) {
	test := threeQuestionTest()
	test.ShuffleQuestions = true
	s := mustSession(t, test)

	var presented []string
	for {
		q, ok := s.Current()
		if !ok {
			t.Fatalf("expected a current question")
		}
		presented = append(presented, q.ID)
		var raw string
		switch q.Type {
		case curriculum.TypeSingleChoice:
			raw = "1"
		case curriculum.TypeYesNo:
			raw = "no"
		default:
			raw = "1"
		}
		if _, err := s.SubmitAnswer(raw); err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
		done, err := s.Advance()
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		if done {
			break
		}
	}

	r, err := s.result("r1")
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	for i, d := range r.AnswersDetails {
		if d.QuestionID != presented[i] {
			t.Fatalf("details[%d]=%s, presented[%d]=%s: order must match presentation",
				i, d.QuestionID, i, presented[i])
		}
	}
}

func TestShuffleIsPerAttempt(t *testing.T) {
	test := threeQuestionTest()
	test.ShuffleQuestions = true

	order := func(seed int64) []string {
		s, err := newSession("a", "u", test, rand.New(rand.NewSource(seed)), fixedNow())
		if err != nil {
			t.Fatalf("newSession: %v", err)
		}
		var ids []string
		for _, q := range s.questions {
			ids = append(ids, q.ID)
		}
		return ids
	}

	// Some pair of seeds must disagree; a fixed global order would not.
	base := order(1)
	varied := false
	for seed := int64(2); seed < 10; seed++ {
		got := order(seed)
		for i := range got {
			if got[i] != base[i] {
				varied = true
				break
			}
		}
	}
	if !varied {
		t.Fatalf("question order identical across seeds; shuffle not per-attempt")
	}
}

func TestEmptyTestRejected(t *testing.T) {
	_, err := newSession("a", "u", curriculum.Test{ID: "empty"}, rand.New(rand.NewSource(1)), fixedNow())
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestSessionActivatesOnFirstInteraction(t *testing.T) {
	s := mustSession(t, threeQuestionTest())
	if s.state != StateCreated {
		t.Fatalf("fresh session state = %v, want StateCreated", s.state)
	}
	if _, ok := s.Current(); !ok {
		t.Fatalf("expected a current question")
	}
	if s.state != StateInProgress {
		t.Fatalf("state after first view = %v, want StateInProgress", s.state)
	}

	// Submitting without viewing also activates.
	s2 := mustSession(t, threeQuestionTest())
	if _, err := s2.SubmitAnswer("2"); err != nil {
		t.Fatalf("SubmitAnswer on fresh session: %v", err)
	}
	if s2.state != StateInProgress {
		t.Fatalf("state after first answer = %v, want StateInProgress", s2.state)
	}
}

func TestSubmitTwiceWithoutAdvance(t *testing.T) {
	s := mustSession(t, threeQuestionTest())
	if _, err := s.SubmitAnswer("2"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := s.SubmitAnswer("2"); !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}
}
