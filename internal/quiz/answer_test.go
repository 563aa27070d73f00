package quiz

import (
	"errors"
	"testing"

	"github.com/pathforge/pathforge/internal/curriculum"
)

func TestParseAnswerTable(t *testing.T) {
	choice := curriculum.Question{
		Type:    curriculum.TypeSingleChoice,
		Options: []string{"alpha", "beta"},
	}
	multi := curriculum.Question{
		Type:    curriculum.TypeMultipleChoice,
		Options: []string{"red", "green", "blue"},
	}

	cases := []struct {
		name    string
		q       curriculum.Question
		raw     string
		want    string
		invalid bool
	}{
		{"text verbatim", curriculum.Question{Type: curriculum.TypeText}, " as typed ", " as typed ", false},
		{"number ok", curriculum.Question{Type: curriculum.TypeNumber}, " 3.5 ", "3.5", false},
		{"number garbage", curriculum.Question{Type: curriculum.TypeNumber}, "three", "", true},
		{"choice in range", choice, "2", "beta", false},
		{"choice zero", choice, "0", "", true},
		{"choice out of range", choice, "3", "", true},
		{"choice non-numeric", choice, "beta", "", true},
		{"yes_no yes", curriculum.Question{Type: curriculum.TypeYesNo}, " YES ", "yes", false},
		{"yes_no other", curriculum.Question{Type: curriculum.TypeYesNo}, "maybe", "", true},
		{"multi indices", multi, "1,3", "red, blue", false},
		{"multi dup indices", multi, "1,1,3", "red, blue", false},
		{"multi index out of range", multi, "1,9", "", true},
		{"multi literal fallback", multi, "Red, BLUE", "red, blue", false},
		{"multi nothing matches", multi, "yellow", "", true},
		{"multi empty", multi, " , ", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := ParseAnswer(tc.q, tc.raw)
			if tc.invalid {
				if !errors.Is(err, ErrInvalidAnswer) {
					t.Fatalf("err = %v, want ErrInvalidAnswer", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := a.String(); got != tc.want {
				t.Fatalf("answer = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMixedTokensFallBackToLiterals(t *testing.T) {
	// One unparseable token means the whole input is matched literally, so
	// "2" here is the literal option "2", not an index.
	q := curriculum.Question{
		Type:    curriculum.TypeMultipleChoice,
		Options: []string{"2", "two", "deux"},
	}
	a, err := ParseAnswer(q, "two, 2")
	if err != nil {
		t.Fatalf("ParseAnswer: %v", err)
	}
	if got := a.String(); got != "two, 2" {
		t.Fatalf("resolved = %q, want literal matches", got)
	}
}

func TestNumberEquivalentForms(t *testing.T) {
	q := curriculum.Question{Type: curriculum.TypeNumber, CorrectAnswer: "5"}
	a, err := ParseAnswer(q, "5.0")
	if err != nil {
		t.Fatalf("ParseAnswer: %v", err)
	}
	ok, err := checkAnswer(q, a)
	if err != nil || !ok {
		t.Fatalf("5.0 vs key 5: correct=%v err=%v", ok, err)
	}
}
