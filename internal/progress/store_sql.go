package progress

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateInstance(ctx context.Context, inst Instance, stages []StageProgress) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM trainee_paths WHERE trainee_id=$1 AND is_active LIMIT 1`,
		inst.TraineeID).Scan(&one)
	if err == nil {
		err = ErrAlreadyAssigned
		return err
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO trainee_paths
		(id,trainee_id,path_id,assigned_by,is_active,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		inst.ID, inst.TraineeID, inst.PathID, inst.AssignedBy, inst.IsActive, inst.CreatedAt)
	if err != nil {
		// Concurrent assignment races past the SELECT; the partial unique
		// index on active rows is the authority.
		if isUniqueViolation(err) {
			err = ErrAlreadyAssigned
		}
		return err
	}
	for _, sp := range stages {
		var openedBy sql.NullString
		var openedAt sql.NullInt64
		if sp.IsOpened {
			openedBy = sql.NullString{String: sp.OpenedBy, Valid: true}
			openedAt = sql.NullInt64{Int64: sp.OpenedAt, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO stage_progress
			(id,instance_id,stage_id,is_opened,opened_by,opened_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			sp.ID, sp.InstanceID, sp.StageID, sp.IsOpened, openedBy, openedAt)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// isUniqueViolation matches both drivers: sqlite reports "UNIQUE constraint
// failed", postgres "duplicate key value violates unique constraint".
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

func (s *SQLStore) GetInstance(ctx context.Context, id string) (Instance, error) {
	var inst Instance
	err := s.db.QueryRowContext(ctx, `SELECT id,trainee_id,path_id,assigned_by,is_active,created_at
		FROM trainee_paths WHERE id=$1`, id).
		Scan(&inst.ID, &inst.TraineeID, &inst.PathID, &inst.AssignedBy, &inst.IsActive, &inst.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Instance{}, ErrNotFound
	}
	return inst, err
}

func (s *SQLStore) ActiveInstance(ctx context.Context, traineeID string) (Instance, error) {
	var inst Instance
	err := s.db.QueryRowContext(ctx, `SELECT id,trainee_id,path_id,assigned_by,is_active,created_at
		FROM trainee_paths WHERE trainee_id=$1 AND is_active LIMIT 1`, traineeID).
		Scan(&inst.ID, &inst.TraineeID, &inst.PathID, &inst.AssignedBy, &inst.IsActive, &inst.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Instance{}, ErrNotFound
	}
	return inst, err
}

func (s *SQLStore) StageProgressByInstance(ctx context.Context, instanceID string) ([]StageProgress, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,instance_id,stage_id,is_opened,opened_by,opened_at
		FROM stage_progress WHERE instance_id=$1`, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StageProgress
	for rows.Next() {
		var sp StageProgress
		var openedBy sql.NullString
		var openedAt sql.NullInt64
		if err := rows.Scan(&sp.ID, &sp.InstanceID, &sp.StageID, &sp.IsOpened, &openedBy, &openedAt); err != nil {
			return nil, err
		}
		sp.OpenedBy = openedBy.String
		sp.OpenedAt = openedAt.Int64
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *SQLStore) MarkStageOpened(ctx context.Context, instanceID, stageID, openedBy string, openedAt int64) error {
	// Guard the no-op first so a re-open never clobbers opened_by/opened_at.
	var opened bool
	err := s.db.QueryRowContext(ctx,
		`SELECT is_opened FROM stage_progress WHERE instance_id=$1 AND stage_id=$2`,
		instanceID, stageID).Scan(&opened)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if opened {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `UPDATE stage_progress
		SET is_opened=TRUE, opened_by=$1, opened_at=$2
		WHERE instance_id=$3 AND stage_id=$4 AND NOT is_opened`,
		openedBy, openedAt, instanceID, stageID)
	return err
}
