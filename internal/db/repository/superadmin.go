package repository

import (
	"context"
	"database/sql"
)

type SuperAdminRepo struct {
	db *sql.DB
}

func NewSuperAdminRepo(db *sql.DB) *SuperAdminRepo {
	return &SuperAdminRepo{db: db}
}

func (r *SuperAdminRepo) IsSuperAdmin(ctx context.Context, userID string) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM super_admins WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return false, mapDBError(err)
	}
	return n > 0, nil
}

// Add registers a user in the global super_admins registry. Used by seeding
// and tests; the request handlers never mutate the registry.
func (r *SuperAdminRepo) Add(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO super_admins (user_id) VALUES (?) ON CONFLICT(user_id) DO NOTHING`,
		userID)
	return mapDBError(err)
}
