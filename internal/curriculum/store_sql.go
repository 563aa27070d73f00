package curriculum

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutPath(ctx context.Context, p LearningPath) error {
	if err := validateStageOrder(p); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var attn sql.NullString
	if p.AttestationTestID != "" {
		attn = sql.NullString{String: p.AttestationTestID, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO learning_paths (id,name,attestation_test_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name,
			attestation_test_id=EXCLUDED.attestation_test_id`, p.ID, p.Name, attn)
	if err != nil {
		return err
	}
	for _, st := range p.Stages {
		_, err = tx.ExecContext(ctx, `INSERT INTO stages (id,path_id,order_number,name)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO UPDATE SET order_number=EXCLUDED.order_number, name=EXCLUDED.name`,
			st.ID, p.ID, st.OrderNumber, st.Name)
		if err != nil {
			return err
		}
		for _, se := range st.Sessions {
			_, err = tx.ExecContext(ctx, `INSERT INTO sessions (id,stage_id,order_number,name)
				VALUES ($1,$2,$3,$4)
				ON CONFLICT (id) DO UPDATE SET order_number=EXCLUDED.order_number, name=EXCLUDED.name`,
				se.ID, st.ID, se.OrderNumber, se.Name)
			if err != nil {
				return err
			}
			for _, t := range se.Tests {
				t.SessionID = se.ID
				if err = putTestTx(ctx, tx, t); err != nil {
					return err
				}
			}
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetPath(ctx context.Context, id string) (LearningPath, error) {
	var p LearningPath
	var attn sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id,name,attestation_test_id FROM learning_paths WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &attn)
	if errors.Is(err, sql.ErrNoRows) {
		return LearningPath{}, ErrNotFound
	}
	if err != nil {
		return LearningPath{}, err
	}
	p.AttestationTestID = attn.String

	rows, err := s.db.QueryContext(ctx,
		`SELECT id,order_number,name FROM stages WHERE path_id=$1 ORDER BY order_number`, id)
	if err != nil {
		return LearningPath{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var st Stage
		st.PathID = id
		if err := rows.Scan(&st.ID, &st.OrderNumber, &st.Name); err != nil {
			return LearningPath{}, err
		}
		p.Stages = append(p.Stages, st)
	}
	if err := rows.Err(); err != nil {
		return LearningPath{}, err
	}

	for i := range p.Stages {
		sessions, err := s.sessionsOfStage(ctx, p.Stages[i].ID)
		if err != nil {
			return LearningPath{}, err
		}
		p.Stages[i].Sessions = sessions
	}
	return p, nil
}

func (s *SQLStore) sessionsOfStage(ctx context.Context, stageID string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,order_number,name FROM sessions WHERE stage_id=$1 ORDER BY order_number`, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		var se Session
		se.StageID = stageID
		if err := rows.Scan(&se.ID, &se.OrderNumber, &se.Name); err != nil {
			return nil, err
		}
		out = append(out, se)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		trows, err := s.db.QueryContext(ctx,
			`SELECT id,name,threshold_score,max_score,shuffle_questions,max_attempts
			 FROM tests WHERE session_id=$1 ORDER BY id`, out[i].ID)
		if err != nil {
			return nil, err
		}
		for trows.Next() {
			var t Test
			t.SessionID = out[i].ID
			if err := trows.Scan(&t.ID, &t.Name, &t.ThresholdScore, &t.MaxScore,
				&t.ShuffleQuestions, &t.MaxAttempts); err != nil {
				trows.Close()
				return nil, err
			}
			out[i].Tests = append(out[i].Tests, t)
		}
		if err := trows.Err(); err != nil {
			trows.Close()
			return nil, err
		}
		trows.Close()
	}
	return out, nil
}

func (s *SQLStore) ListPaths(ctx context.Context) ([]LearningPath, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,name,attestation_test_id FROM learning_paths ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LearningPath{}
	for rows.Next() {
		var p LearningPath
		var attn sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &attn); err != nil {
			return nil, err
		}
		p.AttestationTestID = attn.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutTest(ctx context.Context, t Test) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := putTestTx(ctx, tx, t); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func putTestTx(ctx context.Context, tx *sql.Tx, t Test) error {
	qj, err := json.Marshal(t.Questions)
	if err != nil {
		return err
	}
	var sess sql.NullString
	if t.SessionID != "" {
		sess = sql.NullString{String: t.SessionID, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO tests
		(id,session_id,name,threshold_score,max_score,shuffle_questions,max_attempts,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			session_id=EXCLUDED.session_id,
			name=EXCLUDED.name,
			threshold_score=EXCLUDED.threshold_score,
			max_score=EXCLUDED.max_score,
			shuffle_questions=EXCLUDED.shuffle_questions,
			max_attempts=EXCLUDED.max_attempts,
			questions_json=EXCLUDED.questions_json`,
		t.ID, sess, t.Name, t.ThresholdScore, t.MaxScore, t.ShuffleQuestions,
		t.MaxAttempts, string(qj), time.Now().Unix())
	return err
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (Test, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,session_id,name,threshold_score,max_score,
		shuffle_questions,max_attempts,questions_json,created_at FROM tests WHERE id=$1`, id)
	var t Test
	var sess sql.NullString
	var qjson string
	err := row.Scan(&t.ID, &sess, &t.Name, &t.ThresholdScore, &t.MaxScore,
		&t.ShuffleQuestions, &t.MaxAttempts, &qjson, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Test{}, ErrNotFound
	}
	if err != nil {
		return Test{}, err
	}
	t.SessionID = sess.String
	if err := json.Unmarshal([]byte(qjson), &t.Questions); err != nil {
		return Test{}, err
	}
	return t, nil
}

func (s *SQLStore) StageOfTest(ctx context.Context, testID string) (string, string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT st.id, st.path_id
		FROM tests t
		JOIN sessions se ON se.id = t.session_id
		JOIN stages st ON st.id = se.stage_id
		WHERE t.id=$1`, testID)
	var stageID, pathID string
	err := row.Scan(&stageID, &pathID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	return stageID, pathID, nil
}
