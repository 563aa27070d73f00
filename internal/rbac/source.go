package rbac

import (
	"context"
	"database/sql"
	"errors"
)

// DBPermissionSource answers HasPermission(userID, capability) by reading the
// user's role from the users table and consulting the role policy. This is
// the identity collaborator the access governor talks to.
type DBPermissionSource struct {
	db      *sql.DB
	checker *Checker
}

func NewDBPermissionSource(db *sql.DB, c *Checker) *DBPermissionSource {
	if c == nil {
		c = NewChecker(nil)
	}
	return &DBPermissionSource{db: db, checker: c}
}

func (s *DBPermissionSource) HasPermission(ctx context.Context, userID, perm string) (bool, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM users WHERE id=$1 OR username=$1`, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.checker.Has(role, perm), nil
}

// StaticPermissionSource serves fixed user→role assignments. Test and dev
// helper.
type StaticPermissionSource struct {
	Roles   map[string]string // userID -> role
	checker *Checker
}

func NewStaticPermissionSource(roles map[string]string) *StaticPermissionSource {
	return &StaticPermissionSource{Roles: roles, checker: NewChecker(nil)}
}

func (s *StaticPermissionSource) HasPermission(_ context.Context, userID, perm string) (bool, error) {
	role, ok := s.Roles[userID]
	if !ok {
		return false, nil
	}
	return s.checker.Has(role, perm), nil
}
