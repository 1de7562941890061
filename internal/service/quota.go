package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhigitlit/revisely/internal/config"
)

// ErrQuotaExceeded is the user-visible denial when the attempt ceiling for
// the rolling window has been reached. No state is mutated beyond the
// forward block.
var ErrQuotaExceeded = errors.New("quiz attempt limit reached")

const attemptWindow = time.Hour

// QuotaService gates quiz creation on the persisted attempt quota.
type QuotaService struct {
	ledger Ledger
	admins map[int64]struct{}
	cfg    config.Quota

	now func() time.Time
}

// NewQuotaService creates a quota service. Admin identities bypass every check.
func NewQuotaService(ledger Ledger, cfg config.Quota, adminIDs []int64) *QuotaService {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &QuotaService{
		ledger: ledger,
		admins: admins,
		cfg:    cfg,
		now:    time.Now,
	}
}

// IsAdmin reports whether the user bypasses quota checks.
func (s *QuotaService) IsAdmin(userID int64) bool {
	_, ok := s.admins[userID]
	return ok
}

// CheckAllowed decides whether the user may start a new quiz. Reaching the
// attempt ceiling within the trailing window sets a forward block for the
// configured cooldown and denies creation.
func (s *QuotaService) CheckAllowed(ctx context.Context, userID int64) error {
	if s.IsAdmin(userID) {
		return nil
	}

	now := s.now()

	stats, err := s.ledger.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user stats: %w", err)
	}
	if stats.BlockedAt(now) {
		return ErrQuotaExceeded
	}

	attempts, err := s.ledger.CountAttemptsSince(ctx, userID, now.Add(-attemptWindow))
	if err != nil {
		return fmt.Errorf("count attempts: %w", err)
	}
	if attempts >= s.cfg.MaxAttemptsPerHour {
		if err := s.ledger.SetBlock(ctx, userID, now.Add(s.cfg.BlockDuration)); err != nil {
			return fmt.Errorf("set block: %w", err)
		}
		return ErrQuotaExceeded
	}

	return nil
}
