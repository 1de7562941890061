package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository records quiz start timestamps, one row per quiz start,
// used for the rolling-window quota count.
type AttemptRepository struct {
	db *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository with the provided database pool.
func NewAttemptRepository(db *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Record inserts one attempt row for the user.
func (r *AttemptRepository) Record(ctx context.Context, userID int64, startedAt time.Time) error {
	query := `INSERT INTO quiz_attempts (user_id, quiz_timestamp) VALUES ($1, $2)`

	if _, err := r.db.Exec(ctx, query, userID, startedAt); err != nil {
		return fmt.Errorf("record quiz attempt: %w", err)
	}

	return nil
}

// CountSince returns how many quizzes the user started after the given time.
func (r *AttemptRepository) CountSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM quiz_attempts WHERE user_id = $1 AND quiz_timestamp > $2`

	var count int
	if err := r.db.QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recent attempts: %w", err)
	}

	return count, nil
}
