package http

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateIntakeDefaultsToTrainee(t *testing.T) {
	rows := []intakeRow{
		{ID: "u1", Username: "alice"},
		{ID: "u2", Username: "bob", Role: " Trainee "},
	}
	if err := validateIntake(rows, false); err != nil {
		t.Fatalf("validateIntake: %v", err)
	}
	for i, r := range rows {
		if r.Role != "trainee" {
			t.Fatalf("row %d role = %q, want trainee", i, r.Role)
		}
	}
}

func TestValidateIntakeGatesElevatedRoles(t *testing.T) {
	rows := []intakeRow{{ID: "u1", Username: "carol", Role: "mentor"}}
	if err := validateIntake(rows, false); !errors.Is(err, errElevatedRole) {
		t.Fatalf("mentor without opt-in: got %v, want errElevatedRole", err)
	}
	if err := validateIntake(rows, true); err != nil {
		t.Fatalf("mentor with opt-in: %v", err)
	}
}

func TestValidateIntakeRejectsBadRows(t *testing.T) {
	if err := validateIntake([]intakeRow{{ID: "u1", Username: "dave", Role: "wizard"}}, true); err == nil {
		t.Fatalf("unknown role accepted")
	}
	if err := validateIntake([]intakeRow{{Username: "no-id"}}, false); err == nil {
		t.Fatalf("row without id accepted")
	}
}

func TestParseIntakeCSV(t *testing.T) {
	csv := "id,username,role,password\n" +
		"u1,alice,,secret1\n" +
		"u2,bob,trainee,\n"
	rows, err := parseIntakeCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parseIntakeCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].ID != "u1" || rows[0].Username != "alice" || rows[0].Password != "secret1" {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].Role != "trainee" {
		t.Fatalf("row 1 role = %q", rows[1].Role)
	}

	if _, err := parseIntakeCSV(strings.NewReader("username\nalice\n")); err == nil {
		t.Fatalf("missing id column accepted")
	}
}
