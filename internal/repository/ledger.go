package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhigitlit/revisely/internal/domain/entities"
	"github.com/abhigitlit/revisely/internal/infra/postgres"
)

// QuotaLedger is the persisted quota and statistics store, combining the
// stats, attempt and completed-quiz tables behind one domain-level surface.
type QuotaLedger struct {
	stats     *StatsRepository
	attempts  *AttemptRepository
	completed *CompletedRepository
	tx        *postgres.Transactor
}

// NewQuotaLedger creates a QuotaLedger over the provided database pool.
func NewQuotaLedger(db *pgxpool.Pool) *QuotaLedger {
	return &QuotaLedger{
		stats:     NewStatsRepository(db),
		attempts:  NewAttemptRepository(db),
		completed: NewCompletedRepository(db),
		tx:        postgres.NewTransactor(db),
	}
}

// GetOrCreate retrieves the user's aggregate stats row.
func (l *QuotaLedger) GetOrCreate(ctx context.Context, userID int64) (*entities.UserStats, error) {
	return l.stats.GetOrCreate(ctx, userID)
}

// SetBlock sets a forward block for the user.
func (l *QuotaLedger) SetBlock(ctx context.Context, userID int64, until time.Time) error {
	return l.stats.SetBlockUntil(ctx, userID, until)
}

// CountAttemptsSince returns the user's quiz starts after the given time.
func (l *QuotaLedger) CountAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	return l.attempts.CountSince(ctx, userID, since)
}

// RecordAttempt records one quiz start for the rolling-window count.
func (l *QuotaLedger) RecordAttempt(ctx context.Context, userID int64, at time.Time) error {
	return l.attempts.Record(ctx, userID, at)
}

// FlushResult writes the terminal aggregate of one session, and marks the
// quiz file completed when the run finished naturally, in one transaction.
func (l *QuotaLedger) FlushResult(ctx context.Context, userID int64, res entities.QuizResult, quizFile string, markCompleted bool, at time.Time) error {
	err := l.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := l.stats.ApplyResultWithTx(ctx, tx, userID, res); err != nil {
			return err
		}
		if markCompleted {
			if err := l.completed.MarkWithTx(ctx, tx, userID, quizFile, at); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("flush quiz result: %w", err)
	}

	return nil
}

// CompletedFiles returns the quiz files the user has finished.
func (l *QuotaLedger) CompletedFiles(ctx context.Context, userID int64) ([]string, error) {
	return l.completed.ListByUser(ctx, userID)
}

// AllUserIDs returns every known user, for admin broadcasts.
func (l *QuotaLedger) AllUserIDs(ctx context.Context) ([]int64, error) {
	return l.stats.AllUserIDs(ctx)
}
