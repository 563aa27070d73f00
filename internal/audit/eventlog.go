package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"
)

// Event types appended by the core write paths.
const (
	TypePathAssigned    = "PathAssigned"
	TypeStageOpened     = "StageOpened"
	TypeAccessGranted   = "AccessGranted"
	TypeAccessRevoked   = "AccessRevoked"
	TypeAttemptFinished = "AttemptFinished"
)

type Event struct {
	Offset    int64
	Type      string
	Key       string // natural key: instance, grant or attempt id
	DataJSON  string
	CreatedAt int64
}

type Sink interface {
	Append(ctx context.Context, e Event) error
}

// Record marshals data and appends, tolerating a nil sink. Audit failures do
// not fail the operation that produced them.
func Record(ctx context.Context, s Sink, typ, key string, data any) {
	if s == nil {
		return
	}
	buf, err := json.Marshal(data)
	if err != nil {
		return
	}
	_ = s.Append(ctx, Event{Type: typ, Key: key, DataJSON: string(buf)})
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

type MemorySink struct {
	mu     sync.Mutex
	Events []Event
}

func (m *MemorySink) Append(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Offset = int64(len(m.Events) + 1)
	e.CreatedAt = time.Now().Unix()
	m.Events = append(m.Events, e)
	return nil
}
