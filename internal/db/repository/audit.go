package repository

import (
	"context"
	"database/sql"

	"clinic-admin/internal/domain"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO admin_audit (principal, action, status, detail) VALUES (?, ?, ?, ?)`,
		e.Principal, e.Action, e.Status, e.Detail)
	if err != nil {
		return mapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = id
	return r.db.QueryRowContext(ctx,
		`SELECT created_at FROM admin_audit WHERE id = ?`, id).Scan(&e.CreatedAt)
}
