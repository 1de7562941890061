package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS user_stats (
		user_id BIGINT PRIMARY KEY,
		total_quiz_attempted INTEGER NOT NULL DEFAULT 0,
		total_questions_attempted INTEGER NOT NULL DEFAULT 0,
		total_right INTEGER NOT NULL DEFAULT 0,
		total_wrong INTEGER NOT NULL DEFAULT 0,
		block_until TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_attempts (
		user_id BIGINT NOT NULL,
		quiz_timestamp TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_attempts_user_time
		ON quiz_attempts (user_id, quiz_timestamp)`,
	`CREATE TABLE IF NOT EXISTS completed_quizzes (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		quiz_file TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, quiz_file)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id BIGINT PRIMARY KEY,
		full_name TEXT,
		username TEXT
	)`,
}

// InitSchema creates the tables the bot needs if they do not exist yet.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
