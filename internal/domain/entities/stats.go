package entities

import "time"

// UserStats holds a user's cumulative quiz statistics and temporary-block
// state as persisted in user_stats.
type UserStats struct {
	UserID                  int64
	TotalQuizAttempted      int
	TotalQuestionsAttempted int
	TotalRight              int
	TotalWrong              int
	BlockUntil              *time.Time
}

// BlockedAt reports whether the user is blocked at the given moment.
// Blocking is re-evaluated against the timestamp, never proactively expired.
func (s *UserStats) BlockedAt(now time.Time) bool {
	return s.BlockUntil != nil && now.Before(*s.BlockUntil)
}

// QuizResult is the aggregate written to the ledger exactly once when a
// session reaches its terminal transition.
type QuizResult struct {
	QuizAttempted      int
	QuestionsAttempted int
	Right              int
	Wrong              int
}

// ResultFromSession derives the terminal aggregate from a session's counters.
func ResultFromSession(s *Session) QuizResult {
	return QuizResult{
		QuizAttempted:      1,
		QuestionsAttempted: s.Attempted,
		Right:              s.Correct,
		Wrong:              s.Attempted - s.Correct,
	}
}
