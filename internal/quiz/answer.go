package quiz

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pathforge/pathforge/internal/curriculum"
)

// ErrInvalidAnswer marks a recoverable validation failure: the caller
// re-prompts the same question instead of failing the attempt.
var ErrInvalidAnswer = errors.New("invalid answer format")

type AnswerKind int

const (
	KindText AnswerKind = iota
	KindNumber
	KindChoice
	KindMultiChoice
)

// Answer is the tagged union an answer resolves to exactly once at
// submission time. Choice answers hold the resolved option text from the
// attempt's permuted option list, so no index mapping survives past parsing.
type Answer struct {
	Kind   AnswerKind
	Text   string
	Number float64
	Multi  []string
}

// String flattens the answer for result records and review views.
func (a Answer) String() string {
	switch a.Kind {
	case KindNumber:
		return strconv.FormatFloat(a.Number, 'f', -1, 64)
	case KindMultiChoice:
		return strings.Join(a.Multi, ", ")
	default:
		return a.Text
	}
}

// ParseAnswer validates raw trainee input against the question as presented
// this attempt (options already permuted). All failures wrap ErrInvalidAnswer.
func ParseAnswer(q curriculum.Question, raw string) (Answer, error) {
	switch q.Type {
	case curriculum.TypeText:
		return Answer{Kind: KindText, Text: raw}, nil

	case curriculum.TypeNumber:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Answer{}, fmt.Errorf("%w: expected a number", ErrInvalidAnswer)
		}
		return Answer{Kind: KindNumber, Number: v}, nil

	case curriculum.TypeSingleChoice:
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || idx < 1 || idx > len(q.Options) {
			return Answer{}, fmt.Errorf("%w: expected an option number 1-%d", ErrInvalidAnswer, len(q.Options))
		}
		return Answer{Kind: KindChoice, Text: q.Options[idx-1]}, nil

	case curriculum.TypeYesNo:
		v := strings.ToLower(strings.TrimSpace(raw))
		if v != "yes" && v != "no" {
			return Answer{}, fmt.Errorf("%w: expected yes or no", ErrInvalidAnswer)
		}
		return Answer{Kind: KindText, Text: v}, nil

	case curriculum.TypeMultipleChoice:
		picked, err := resolveMulti(q.Options, raw)
		if err != nil {
			return Answer{}, err
		}
		return Answer{Kind: KindMultiChoice, Multi: picked}, nil
	}
	return Answer{}, fmt.Errorf("%w: unknown question type %q", ErrInvalidAnswer, q.Type)
}

// resolveMulti turns comma-separated input into a non-empty subset of the
// options. Index parsing is authoritative: only when some token fails to
// parse cleanly as an integer does the whole input fall back to
// case-insensitive literal matching.
func resolveMulti(options []string, raw string) ([]string, error) {
	tokens := splitTokens(raw)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty selection", ErrInvalidAnswer)
	}

	indices := make([]int, 0, len(tokens))
	numeric := true
	for _, tok := range tokens {
		idx, err := strconv.Atoi(tok)
		if err != nil {
			numeric = false
			break
		}
		indices = append(indices, idx)
	}

	seen := map[string]struct{}{}
	var picked []string
	if numeric {
		for _, idx := range indices {
			if idx < 1 || idx > len(options) {
				return nil, fmt.Errorf("%w: option %d out of range", ErrInvalidAnswer, idx)
			}
			opt := options[idx-1]
			if _, dup := seen[opt]; !dup {
				seen[opt] = struct{}{}
				picked = append(picked, opt)
			}
		}
		return picked, nil
	}

	for _, tok := range tokens {
		for _, opt := range options {
			if strings.EqualFold(tok, opt) {
				if _, dup := seen[opt]; !dup {
					seen[opt] = struct{}{}
					picked = append(picked, opt)
				}
				break
			}
		}
	}
	if len(picked) == 0 {
		return nil, fmt.Errorf("%w: no options matched", ErrInvalidAnswer)
	}
	return picked, nil
}

func splitTokens(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// sortedCopy keeps set comparisons order-independent without mutating input.
func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
