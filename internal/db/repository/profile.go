package repository

import (
	"context"
	"database/sql"

	"clinic-admin/internal/domain"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, role, account_id) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET role = excluded.role, account_id = excluded.account_id`,
		p.ID, p.Role, p.AccountID)
	return mapDBError(err)
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT id, role, account_id FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.Role, &p.AccountID)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &p, nil
}
