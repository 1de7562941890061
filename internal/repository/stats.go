package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhigitlit/revisely/internal/domain/entities"
)

// StatsRepository provides access to per-user aggregate quiz statistics and
// temporary-block state in the database.
type StatsRepository struct {
	db *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository with the provided database pool.
func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// GetOrCreate retrieves a user's stats row, inserting a zeroed one if the
// user has never been seen.
func (r *StatsRepository) GetOrCreate(ctx context.Context, userID int64) (*entities.UserStats, error) {
	query := `
		SELECT user_id, total_quiz_attempted, total_questions_attempted,
		       total_right, total_wrong, block_until
		FROM user_stats
		WHERE user_id = $1
	`

	var stats entities.UserStats
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&stats.UserID,
		&stats.TotalQuizAttempted,
		&stats.TotalQuestionsAttempted,
		&stats.TotalRight,
		&stats.TotalWrong,
		&stats.BlockUntil,
	)
	if err == nil {
		return &stats, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get user stats: %w", err)
	}

	insert := `INSERT INTO user_stats (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.Exec(ctx, insert, userID); err != nil {
		return nil, fmt.Errorf("create user stats: %w", err)
	}

	return &entities.UserStats{UserID: userID}, nil
}

// ApplyResultWithTx adds a terminal quiz aggregate to the user's cumulative
// counters within a caller-owned transaction.
func (r *StatsRepository) ApplyResultWithTx(ctx context.Context, tx pgx.Tx, userID int64, res entities.QuizResult) error {
	query := `
		UPDATE user_stats
		SET total_quiz_attempted = total_quiz_attempted + $1,
		    total_questions_attempted = total_questions_attempted + $2,
		    total_right = total_right + $3,
		    total_wrong = total_wrong + $4
		WHERE user_id = $5
	`

	_, err := tx.Exec(ctx, query,
		res.QuizAttempted,
		res.QuestionsAttempted,
		res.Right,
		res.Wrong,
		userID,
	)
	if err != nil {
		return fmt.Errorf("apply quiz result: %w", err)
	}

	return nil
}

// SetBlockUntil sets a forward block for the user.
func (r *StatsRepository) SetBlockUntil(ctx context.Context, userID int64, until time.Time) error {
	query := `UPDATE user_stats SET block_until = $1 WHERE user_id = $2`

	if _, err := r.db.Exec(ctx, query, until, userID); err != nil {
		return fmt.Errorf("set block until: %w", err)
	}

	return nil
}

// AllUserIDs returns the IDs of every user with a stats row.
func (r *StatsRepository) AllUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM user_stats`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
