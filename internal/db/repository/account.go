package repository

import (
	"context"
	"database/sql"

	"clinic-admin/internal/domain"
)

type AccountRepo struct {
	db *sql.DB
}

func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var a domain.Account
	var frozen int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, frozen, created_at FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &frozen, &a.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	a.Frozen = frozen != 0
	return &a, nil
}

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, frozen) VALUES (?, ?, ?)`,
		a.ID, a.Name, boolToInt(a.Frozen))
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, a.ID)
}

func (r *AccountRepo) SetFrozen(ctx context.Context, id string, frozen bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET frozen = ? WHERE id = ?`, boolToInt(frozen), id)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, "account %q not found", id)
}

func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, "account %q not found", id)
}

// requireRow converts a zero-row-affected result into NotFoundError.
func requireRow(res sql.Result, format string, args ...interface{}) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound(format, args...)
	}
	return nil
}
