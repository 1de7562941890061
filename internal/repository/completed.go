package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CompletedRepository tracks which quiz files a user has finished, so the
// directory browser can mark them.
type CompletedRepository struct {
	db *pgxpool.Pool
}

// NewCompletedRepository creates a new CompletedRepository with the provided database pool.
func NewCompletedRepository(db *pgxpool.Pool) *CompletedRepository {
	return &CompletedRepository{db: db}
}

// MarkWithTx records a finished quiz file for the user within a caller-owned
// transaction. Re-completing a file is a no-op.
func (r *CompletedRepository) MarkWithTx(ctx context.Context, tx pgx.Tx, userID int64, quizFile string, at time.Time) error {
	query := `
		INSERT INTO completed_quizzes (user_id, quiz_file, timestamp)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, quiz_file) DO NOTHING
	`

	if _, err := tx.Exec(ctx, query, userID, quizFile, at); err != nil {
		return fmt.Errorf("mark quiz completed: %w", err)
	}

	return nil
}

// ListByUser returns every quiz file the user has completed.
func (r *CompletedRepository) ListByUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT quiz_file FROM completed_quizzes WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list completed quizzes: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan quiz file: %w", err)
		}
		files = append(files, f)
	}

	return files, rows.Err()
}
