package curriculum

import "encoding/json"

// QuestionType selects how an answer is parsed and checked.
type QuestionType string

const (
	TypeText           QuestionType = "text"
	TypeNumber         QuestionType = "number"
	TypeSingleChoice   QuestionType = "single_choice"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeYesNo          QuestionType = "yes_no"
)

func (t QuestionType) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeSingleChoice, TypeMultipleChoice, TypeYesNo:
		return true
	}
	return false
}

// HasOptions reports whether the type renders an option list.
func (t QuestionType) HasOptions() bool {
	return t == TypeSingleChoice || t == TypeMultipleChoice
}

type Question struct {
	ID            string       `json:"id"`
	Number        int          `json:"question_number"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"` // JSON array for multiple_choice
	Points        float64      `json:"points"`
	PenaltyPoints float64      `json:"penalty_points"`
}

// CorrectSet decodes the multiple_choice answer key. For other types the
// single correct answer is returned as a one-element set.
func (q Question) CorrectSet() ([]string, error) {
	if q.Type != TypeMultipleChoice {
		return []string{q.CorrectAnswer}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(q.CorrectAnswer), &out); err != nil {
		return nil, err
	}
	return out, nil
}

type Test struct {
	ID               string     `json:"id"`
	SessionID        string     `json:"session_id,omitempty"` // empty for ad-hoc tests
	Name             string     `json:"name"`
	ThresholdScore   float64    `json:"threshold_score"`
	MaxScore         float64    `json:"max_score"`
	ShuffleQuestions bool       `json:"shuffle_questions"`
	MaxAttempts      int        `json:"max_attempts"` // 0 = unlimited
	Questions        []Question `json:"questions,omitempty"`
	CreatedAt        int64      `json:"created_at,omitempty"`
}

type Session struct {
	ID          string `json:"id"`
	StageID     string `json:"stage_id"`
	OrderNumber int    `json:"order_number"`
	Name        string `json:"name"`
	Tests       []Test `json:"tests,omitempty"`
}

type Stage struct {
	ID          string    `json:"id"`
	PathID      string    `json:"path_id"`
	OrderNumber int       `json:"order_number"`
	Name        string    `json:"name"`
	Sessions    []Session `json:"sessions,omitempty"`
}

type LearningPath struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Stages []Stage `json:"stages,omitempty"`
	// AttestationTestID optionally points at a final test taken after the
	// last stage. Empty for paths without one.
	AttestationTestID string `json:"attestation_test_id,omitempty"`
}
