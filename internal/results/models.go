package results

// AnswerDetail is one answered question in presentation order.
type AnswerDetail struct {
	QuestionID string  `json:"question_id"`
	Answer     string  `json:"answer"`
	IsCorrect  bool    `json:"is_correct"`
	TimeSpent  float64 `json:"time_spent"` // seconds
}

// WrongAnswer is a human-readable review record for an incorrect answer.
type WrongAnswer struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
}

// TestResult is one finished attempt. Rows are append-only: written once at
// the attempt's commit point and never mutated.
type TestResult struct {
	ID               string         `json:"id"`
	UserID           string         `json:"user_id"`
	TestID           string         `json:"test_id"`
	Score            float64        `json:"score"`
	MaxPossibleScore float64        `json:"max_possible_score"`
	IsPassed         bool           `json:"is_passed"`
	StartTime        int64          `json:"start_time"`
	EndTime          int64          `json:"end_time"`
	AnswersDetails   []AnswerDetail `json:"answers_details"`
	WrongAnswers     []WrongAnswer  `json:"wrong_answers"`
}
