package repository

import (
	"context"
	"database/sql"

	"clinic-admin/internal/domain"
)

type MembershipRepo struct {
	db *sql.DB
}

func NewMembershipRepo(db *sql.DB) *MembershipRepo {
	return &MembershipRepo{db: db}
}

func (r *MembershipRepo) Get(ctx context.Context, accountID, userID string) (*domain.Membership, error) {
	var m domain.Membership
	var disabled int64
	err := r.db.QueryRowContext(ctx,
		`SELECT account_id, user_id, role, disabled, email, created_at
		 FROM account_users WHERE account_id = ? AND user_id = ?`,
		accountID, userID).
		Scan(&m.AccountID, &m.UserID, &m.Role, &disabled, &m.Email, &m.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	m.Disabled = disabled != 0
	return &m, nil
}

func (r *MembershipRepo) Insert(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account_users (account_id, user_id, role, disabled, email)
		 VALUES (?, ?, ?, ?, ?)`,
		m.AccountID, m.UserID, m.Role, boolToInt(m.Disabled), m.Email)
	return mapDBError(err)
}

func (r *MembershipRepo) Reactivate(ctx context.Context, accountID, userID, fallbackRole string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE account_users
		 SET disabled = 0, role = CASE WHEN role = '' THEN ? ELSE role END
		 WHERE account_id = ? AND user_id = ?`,
		fallbackRole, accountID, userID)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, "membership (%s, %s) not found", accountID, userID)
}

func (r *MembershipRepo) UpdateEmail(ctx context.Context, accountID, userID, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE account_users SET email = ? WHERE account_id = ? AND user_id = ?`,
		email, accountID, userID)
	return mapDBError(err)
}

func (r *MembershipRepo) Delete(ctx context.Context, accountID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM account_users WHERE account_id = ? AND user_id = ?`,
		accountID, userID)
	return mapDBError(err)
}

func (r *MembershipRepo) ListByAccount(ctx context.Context, accountID string) ([]domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT account_id, user_id, role, disabled, email, created_at
		 FROM account_users WHERE account_id = ?
		 ORDER BY email COLLATE NOCASE, user_id`,
		accountID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []domain.Membership
	for rows.Next() {
		var m domain.Membership
		var disabled int64
		if err := rows.Scan(&m.AccountID, &m.UserID, &m.Role, &disabled, &m.Email, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Disabled = disabled != 0
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MembershipRepo) LatestRoleForUser(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT role FROM account_users WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT 1`,
		userID).Scan(&role)
	if err != nil {
		return "", mapDBError(err)
	}
	return role, nil
}
