package quiz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pathforge/pathforge/internal/curriculum"
)

// checker decides correctness of one resolved answer.
type checker interface {
	check(q curriculum.Question, a Answer) (bool, error)
}

var checkers = map[curriculum.QuestionType]checker{
	curriculum.TypeText:           textChecker{},
	curriculum.TypeNumber:         numberChecker{},
	curriculum.TypeSingleChoice:   choiceChecker{},
	curriculum.TypeYesNo:          yesNoChecker{},
	curriculum.TypeMultipleChoice: multiChecker{},
}

// checkAnswer routes by question type, mirroring how answers were parsed.
func checkAnswer(q curriculum.Question, a Answer) (bool, error) {
	c, ok := checkers[q.Type]
	if !ok {
		return false, fmt.Errorf("no checker for question type %q", q.Type)
	}
	return c.check(q, a)
}

type textChecker struct{}

func (textChecker) check(q curriculum.Question, a Answer) (bool, error) {
	return a.Text == q.CorrectAnswer, nil
}

type numberChecker struct{}

func (numberChecker) check(q curriculum.Question, a Answer) (bool, error) {
	// An unparseable key means the answer can never be correct; that is an
	// authoring problem, not a trainee error.
	key, err := strconv.ParseFloat(strings.TrimSpace(q.CorrectAnswer), 64)
	if err != nil {
		return false, nil
	}
	return a.Number == key, nil
}

type choiceChecker struct{}

func (choiceChecker) check(q curriculum.Question, a Answer) (bool, error) {
	return a.Text == q.CorrectAnswer, nil
}

type yesNoChecker struct{}

func (yesNoChecker) check(q curriculum.Question, a Answer) (bool, error) {
	return strings.EqualFold(a.Text, q.CorrectAnswer), nil
}

type multiChecker struct{}

func (multiChecker) check(q curriculum.Question, a Answer) (bool, error) {
	key, err := q.CorrectSet()
	if err != nil {
		return false, fmt.Errorf("decode answer key for question %s: %w", q.ID, err)
	}
	got := sortedCopy(a.Multi)
	want := sortedCopy(key)
	if len(got) != len(want) {
		return false, nil
	}
	for i := range got {
		if got[i] != want[i] {
			return false, nil
		}
	}
	return true, nil
}
