package service

import (
	"context"
	"errors"
	"time"

	"github.com/abhigitlit/revisely/internal/domain/entities"
)

// ErrTransportTimeout marks a transient transport failure. Call sites retry
// it once with a fixed backoff and then surface the failure.
var ErrTransportTimeout = errors.New("transport timed out")

// SentQuestion identifies one outbound question and its outstanding-answer
// window. DispatchID matches the id carried by answer events; MessageID is
// kept so the poll can be stopped.
type SentQuestion struct {
	DispatchID string
	MessageID  int
}

// Summary is the terminal performance view of one quiz pass.
type Summary struct {
	Attempted  int
	Correct    int
	Wrong      int
	WrongCount int // questions available for a retry pass
}

// Notice enumerates the engine's out-of-band user notifications.
type Notice int

const (
	NoticeCancelled Notice = iota
	NoticeInactive
	NoticeForcedStop
	NoticeSendFailed
)

// Transport is the chat boundary the engine drives. Implementations own the
// wire format and are expected to serialize sends through the rate-limited
// dispatcher; delivery is at-least-once.
type Transport interface {
	SendQuestion(ctx context.Context, chatID int64, text string, options []string, correctIndex int, annotation string, timeLimit time.Duration) (SentQuestion, error)
	SendSummary(ctx context.Context, chatID int64, sum Summary, offerRetry bool) error
	SendNotice(ctx context.Context, chatID int64, notice Notice) error
	StopPoll(ctx context.Context, chatID int64, messageID int) error
}

// Ledger is the persisted quota and statistics store.
type Ledger interface {
	GetOrCreate(ctx context.Context, userID int64) (*entities.UserStats, error)
	SetBlock(ctx context.Context, userID int64, until time.Time) error
	CountAttemptsSince(ctx context.Context, userID int64, since time.Time) (int, error)
	RecordAttempt(ctx context.Context, userID int64, at time.Time) error
	FlushResult(ctx context.Context, userID int64, res entities.QuizResult, quizFile string, markCompleted bool, at time.Time) error
	CompletedFiles(ctx context.Context, userID int64) ([]string, error)
	AllUserIDs(ctx context.Context) ([]int64, error)
}
