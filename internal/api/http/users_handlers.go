package http

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// intakeRow is one user in a bulk intake. Role defaults to trainee; mentor
// and admin rows are refused unless the request opts in (see
// BulkUpsertUsersHandler).
type intakeRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Password string `json:"password,omitempty"` // plaintext, hashed on write
}

var errElevatedRole = errors.New("mentor/admin rows need allow_elevated=true")

// BulkUpsertUsersHandler onboards an intake of trainees from a JSON array in
// the body or a multipart file= upload (CSV or JSON). The common case is a
// trainee cohort, so elevated roles must be requested explicitly with
// ?allow_elevated=true to keep a stray CSV column from minting mentors.
func BulkUpsertUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := readIntake(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		allowElevated := r.URL.Query().Get("allow_elevated") == "true"
		if err := validateIntake(rows, allowElevated); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(rows) == 0 {
			writeJSON(w, http.StatusOK, map[string]any{"inserted": 0, "updated": 0})
			return
		}

		ins, upd, err := upsertIntake(r.Context(), db, rows)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"inserted": ins, "updated": upd})
	}
}

func readIntake(r *http.Request) ([]intakeRow, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var rows []intakeRow
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			return nil, errors.New("expected JSON array or multipart file")
		}
		return rows, nil
	}

	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.New("file required")
	}
	defer f.Close()
	// sniff CSV vs JSON by the first byte
	buf := make([]byte, 1)
	if _, err := f.Read(buf); err != nil {
		return nil, errors.New("empty file")
	}
	if seeker, ok := f.(io.Seeker); ok {
		_, _ = seeker.Seek(0, io.SeekStart)
	}
	if buf[0] == '[' || buf[0] == '{' {
		var rows []intakeRow
		if err := json.NewDecoder(f).Decode(&rows); err != nil {
			return nil, errors.New("bad json")
		}
		return rows, nil
	}
	return parseIntakeCSV(f)
}

// validateIntake normalizes roles in place and enforces the intake policy.
func validateIntake(rows []intakeRow, allowElevated bool) error {
	for i := range rows {
		if rows[i].ID == "" || rows[i].Username == "" {
			return errors.New("id and username required on every row")
		}
		role := strings.ToLower(strings.TrimSpace(rows[i].Role))
		if role == "" {
			role = "trainee"
		}
		switch role {
		case "trainee":
		case "mentor", "admin":
			if !allowElevated {
				return errElevatedRole
			}
		default:
			return errors.New("invalid role: " + role)
		}
		rows[i].Role = role
	}
	return nil
}

func parseIntakeCSV(r io.Reader) ([]intakeRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"id", "username"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	var rows []intakeRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := intakeRow{
			ID:       rec[idx["id"]],
			Username: rec[idx["username"]],
		}
		if i, ok := idx["role"]; ok {
			row.Role = rec[i]
		}
		if i, ok := idx["password"]; ok {
			row.Password = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func upsertIntake(ctx context.Context, db *sql.DB, rows []intakeRow) (inserted, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	for _, row := range rows {
		var phash string
		if row.Password != "" {
			b, e := bcrypt.GenerateFromPassword([]byte(row.Password), 12)
			if e != nil {
				return inserted, updated, e
			}
			phash = string(b)
		}

		var exists bool
		if err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=$1 OR username=$2`,
			row.ID, row.Username).Scan(new(int)); err == nil {
			exists = true
		} else if !errors.Is(err, sql.ErrNoRows) {
			return inserted, updated, err
		}
		if exists {
			// Missing password keeps the stored hash.
			if phash != "" {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2, password_hash=$3 WHERE id=$4`,
					row.Username, row.Role, phash, row.ID)
			} else {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2 WHERE id=$3`,
					row.Username, row.Role, row.ID)
			}
			if err != nil {
				return inserted, updated, err
			}
			updated++
		} else {
			if phash == "" {
				return inserted, updated, errors.New("password required for new user: " + row.Username)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
				row.ID, row.Username, phash, row.Role, now)
			if err != nil {
				return inserted, updated, err
			}
			inserted++
		}
	}
	return
}

func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var rows *sql.Rows
		var err error
		if role == "" {
			rows, err = db.QueryContext(r.Context(), `SELECT id,username,role FROM users ORDER BY username`)
		} else {
			rows, err = db.QueryContext(r.Context(), `SELECT id,username,role FROM users WHERE role=$1 ORDER BY username`, role)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := []map[string]string{}
		for rows.Next() {
			var id, u, role string
			if err := rows.Scan(&id, &u, &role); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, map[string]string{"id": id, "username": u, "role": role})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
