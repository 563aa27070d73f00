package results

import (
	"context"
	"database/sql"
	"encoding/json"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Insert(ctx context.Context, r TestResult) error {
	aj, err := json.Marshal(r.AnswersDetails)
	if err != nil {
		return err
	}
	wj, err := json.Marshal(r.WrongAnswers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO test_results
		(id,user_id,test_id,score,max_possible_score,is_passed,started_at,finished_at,answers_json,wrong_answers_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		r.ID, r.UserID, r.TestID, r.Score, r.MaxPossibleScore, r.IsPassed,
		r.StartTime, r.EndTime, string(aj), string(wj))
	return err
}

func (s *SQLStore) ByUserAndTest(ctx context.Context, userID, testID string) ([]TestResult, error) {
	return s.query(ctx, `SELECT id,user_id,test_id,score,max_possible_score,is_passed,
		started_at,finished_at,answers_json,wrong_answers_json
		FROM test_results WHERE user_id=$1 AND test_id=$2 ORDER BY started_at`, userID, testID)
}

func (s *SQLStore) ByUser(ctx context.Context, userID string) ([]TestResult, error) {
	return s.query(ctx, `SELECT id,user_id,test_id,score,max_possible_score,is_passed,
		started_at,finished_at,answers_json,wrong_answers_json
		FROM test_results WHERE user_id=$1 ORDER BY started_at`, userID)
}

func (s *SQLStore) CountAttempts(ctx context.Context, userID, testID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM test_results WHERE user_id=$1 AND test_id=$2`,
		userID, testID).Scan(&n)
	return n, err
}

func (s *SQLStore) query(ctx context.Context, q string, args ...any) ([]TestResult, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TestResult
	for rows.Next() {
		var r TestResult
		var aj, wj string
		if err := rows.Scan(&r.ID, &r.UserID, &r.TestID, &r.Score, &r.MaxPossibleScore,
			&r.IsPassed, &r.StartTime, &r.EndTime, &aj, &wj); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(aj), &r.AnswersDetails); err != nil {
			r.AnswersDetails = nil
		}
		if err := json.Unmarshal([]byte(wj), &r.WrongAnswers); err != nil {
			r.WrongAnswers = nil
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
