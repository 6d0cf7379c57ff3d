package repository

import (
	"context"
	"database/sql"
)

type ParticipantRepo struct {
	db *sql.DB
}

func NewParticipantRepo(db *sql.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

func (r *ParticipantRepo) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_participants WHERE conversation_id = ? AND user_id = ?`,
		conversationID, userID).Scan(&n)
	if err != nil {
		return false, mapDBError(err)
	}
	return n > 0, nil
}

// Add inserts a participant row. Used by seeding and tests.
func (r *ParticipantRepo) Add(ctx context.Context, conversationID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_participants (conversation_id, user_id) VALUES (?, ?)
		 ON CONFLICT(conversation_id, user_id) DO NOTHING`,
		conversationID, userID)
	return mapDBError(err)
}
