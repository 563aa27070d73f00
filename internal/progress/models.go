package progress

// Instance is one trainee's run through a learning path. At most one active
// instance per trainee at a time.
type Instance struct {
	ID         string `json:"id"`
	TraineeID  string `json:"trainee_id"`
	PathID     string `json:"path_id"`
	AssignedBy string `json:"assigned_by"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  int64  `json:"created_at,omitempty"`
}

// StageProgress holds the only persisted progression bit: whether a mentor
// has opened the stage. Completion is derived at read time, never stored.
type StageProgress struct {
	ID         string `json:"id"`
	InstanceID string `json:"instance_id"`
	StageID    string `json:"stage_id"`
	IsOpened   bool   `json:"is_opened"`
	OpenedBy   string `json:"opened_by,omitempty"`
	OpenedAt   int64  `json:"opened_at,omitempty"`
}

// Status tree returned by ComputeStatus. Pass/completion flags are always
// gated by current stage openness; a closed stage renders neutral.

type TestStatus struct {
	TestID        string  `json:"test_id"`
	Name          string  `json:"name"`
	Attempted     bool    `json:"attempted"`
	Passed        bool    `json:"passed"`
	Percentage    float64 `json:"percentage"`
	HasPercentage bool    `json:"has_percentage"`
}

type SessionStatus struct {
	SessionID   string       `json:"session_id"`
	Name        string       `json:"name"`
	OrderNumber int          `json:"order_number"`
	Opened      bool         `json:"opened"`
	Completed   bool         `json:"completed"`
	Tests       []TestStatus `json:"tests"`
}

type StageStatus struct {
	StageID     string          `json:"stage_id"`
	Name        string          `json:"name"`
	OrderNumber int             `json:"order_number"`
	Opened      bool            `json:"opened"`
	Completed   bool            `json:"completed"`
	Sessions    []SessionStatus `json:"sessions"`
}

type PathStatus struct {
	InstanceID string        `json:"instance_id"`
	TraineeID  string        `json:"trainee_id"`
	PathID     string        `json:"path_id"`
	PathName   string        `json:"path_name"`
	Stages     []StageStatus `json:"stages"`
	// Attestation is the path's final test, present only when the path has
	// one. It renders neutral until every stage is completed.
	Attestation *TestStatus `json:"attestation,omitempty"`
}
