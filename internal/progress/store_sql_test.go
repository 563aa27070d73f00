package progress

import (
	"errors"
	"testing"
)

func TestUniqueViolationRecognizedPerDriver(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: trainee_paths.trainee_id (2067)"), true},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "one_active_path_per_trainee" (SQLSTATE 23505)`), true},
		{"other error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("isUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
