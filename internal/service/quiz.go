package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhigitlit/revisely/internal/config"
	"github.com/abhigitlit/revisely/internal/domain/entities"
	"github.com/abhigitlit/revisely/internal/storage"
)

// noneOfTheAbove marks the option that is always sorted to the last
// position after shuffling the remaining options.
const noneOfTheAbove = "none of the above"

const timerCharsPerSecond = 20

// transportRetryBackoff is the fixed delay before the single retry of a
// timed-out transport operation.
const transportRetryBackoff = 2 * time.Second

type finalizeReason int

const (
	reasonCompleted finalizeReason = iota
	reasonCancelled
	reasonInactive
	reasonForced
)

// QuizService is the per-user quiz state machine. It drives question
// dispatch, answer collection, timeout and inactivity handling, the retry
// pass over wrong answers, and the single terminal ledger write. All session
// mutation is funneled through the session store's atomic mutate contract;
// transport calls happen outside the lock.
type QuizService struct {
	store     *storage.SessionStore
	transport Transport
	ledger    Ledger
	quota     *QuotaService
	logger    *zap.Logger
	cfg       config.Quiz

	// baseCtx backs timer callbacks, which are not tied to any request.
	baseCtx context.Context

	retryBackoff time.Duration
	now          func() time.Time
}

// NewQuizService wires the engine. ctx bounds background work started by
// watchdog timers and should live as long as the bot.
func NewQuizService(
	ctx context.Context,
	store *storage.SessionStore,
	transport Transport,
	ledger Ledger,
	quota *QuotaService,
	logger *zap.Logger,
	cfg config.Quiz,
) *QuizService {
	return &QuizService{
		store:        store,
		transport:    transport,
		ledger:       ledger,
		quota:        quota,
		logger:       logger,
		cfg:          cfg,
		baseCtx:      ctx,
		retryBackoff: transportRetryBackoff,
		now:          time.Now,
	}
}

// CreateSession registers a configuring session for a user who selected a
// quiz file. Returns storage.ErrAlreadyActive when the user already has one
// and ErrQuotaExceeded when the attempt quota denies creation.
func (s *QuizService) CreateSession(ctx context.Context, userID, chatID int64, quizFile string, questions []entities.Question) error {
	if err := s.quota.CheckAllowed(ctx, userID); err != nil {
		return err
	}
	return s.store.Create(userID, entities.NewSession(userID, chatID, quizFile, questions))
}

// SetLimit updates the number of questions for a not-yet-started session.
// Reports whether the limit was accepted.
func (s *QuizService) SetLimit(userID int64, limit int) bool {
	accepted := false
	s.store.Mutate(userID, func(sess *entities.Session) {
		if sess.Active || sess.Closing {
			return
		}
		if limit < 1 || limit > len(sess.Questions) {
			return
		}
		sess.Limit = limit
		accepted = true
	})
	return accepted
}

// QuestionCount returns how many questions the user's pending session holds.
func (s *QuizService) QuestionCount(userID int64) (int, bool) {
	sess, ok := s.store.Get(userID)
	if !ok {
		return 0, false
	}
	return len(sess.Questions), true
}

// Begin activates a configuring session, records the quota attempt, and
// dispatches the first question.
func (s *QuizService) Begin(ctx context.Context, userID int64, timerEnabled bool) error {
	started := false
	s.store.Mutate(userID, func(sess *entities.Session) {
		if sess.Active || sess.Started || sess.Closing {
			return
		}
		sess.TimerEnabled = timerEnabled
		sess.Active = true
		sess.Started = true
		started = true
	})
	if !started {
		return nil
	}

	if err := s.ledger.RecordAttempt(ctx, userID, s.now()); err != nil {
		s.logger.Error("failed to record quiz attempt",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	s.dispatchNext(ctx, userID)
	return nil
}

// HandleAnswer processes an answer event. Events whose dispatch id does not
// match the outstanding one are stale or duplicate and are discarded without
// state change. selected is the chosen option index, or -1 for a retracted
// vote.
func (s *QuizService) HandleAnswer(ctx context.Context, userID int64, dispatchID string, selected int) {
	var (
		acted bool
		done  bool
	)
	s.store.Mutate(userID, func(sess *entities.Session) {
		if sess.Closing || !sess.Active || sess.PollID == "" || sess.PollID != dispatchID {
			return
		}
		q := sess.CurrentQuestion()
		if q == nil {
			return
		}

		// The answer path won the race: whichever watchdog timer is armed
		// is cancelled before any state moves.
		sess.Watchdog.Stop()
		sess.Watchdog = nil
		sess.PollID = ""
		sess.PollMessageID = 0

		sess.Attempted++
		sess.TimeoutStreak = 0

		if selected >= 0 && selected < len(q.Options) && q.Options[selected] == q.Resolved {
			sess.Correct++
		} else if !sess.RetryMode {
			sess.WrongQuestions = append(sess.WrongQuestions, *q)
		}

		sess.Cursor++
		done = sess.Cursor >= sess.MaxQuestions()
		acted = true
	})
	if !acted {
		return
	}

	if done {
		s.complete(ctx, userID)
		return
	}
	s.dispatchNext(ctx, userID)
}

// Cancel tears down a user's quiz: stop the in-flight poll best-effort,
// cancel any armed timer, flush partial stats exactly once, and remove the
// session. A duplicate cancel is a no-op. Reports whether a session was
// cancelled.
func (s *QuizService) Cancel(ctx context.Context, userID int64) bool {
	snap, claimed := s.claim(userID)
	if !claimed {
		return false
	}

	if snap.pollMessageID != 0 {
		if err := s.transport.StopPoll(ctx, snap.chatID, snap.pollMessageID); err != nil {
			s.logger.Debug("failed to stop poll",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}

	s.finalize(ctx, userID, snap, reasonCancelled)
	return true
}

// AcceptRetry restarts the session over the previously wrong questions.
// Reports whether a retry pass was started.
func (s *QuizService) AcceptRetry(ctx context.Context, userID int64) bool {
	ok := false
	s.store.Mutate(userID, func(sess *entities.Session) {
		if sess.Closing || sess.Active || sess.RetryMode || len(sess.WrongQuestions) == 0 {
			return
		}
		sess.Watchdog.Stop()
		sess.Watchdog = nil
		sess.RestartWithWrong()
		ok = true
	})
	if !ok {
		return false
	}

	s.dispatchNext(ctx, userID)
	return true
}

// DeclineRetry finalizes a session waiting on a retry decision.
func (s *QuizService) DeclineRetry(ctx context.Context, userID int64) {
	snap, claimed := s.claim(userID)
	if !claimed {
		return
	}
	s.finalize(ctx, userID, snap, reasonCompleted)
}

// dispatchNext resolves and sends the question at the cursor, then arms
// exactly one watchdog timer for it.
func (s *QuizService) dispatchNext(ctx context.Context, userID int64) {
	var (
		proceed  bool
		finished bool
		index    int
		chatID   int64
		text     string
		options  []string
		correct  int
		annot    string
		duration time.Duration
	)
	s.store.Mutate(userID, func(sess *entities.Session) {
		if sess.Closing || !sess.Active {
			return
		}

		// Shuffle lazily, exactly once per session.
		if !sess.Shuffled {
			rand.Shuffle(len(sess.Questions), func(i, j int) {
				sess.Questions[i], sess.Questions[j] = sess.Questions[j], sess.Questions[i]
			})
			sess.Shuffled = true
		}

		if sess.Cursor >= sess.MaxQuestions() {
			finished = true
			return
		}

		q := &sess.Questions[sess.Cursor]

		// Resolve exactly once, before the first shuffle, so comparison
		// keys off the literal option value, never the pre-shuffle index.
		// A retry pass sees the question already resolved.
		resolved := q.Resolved
		if resolved == "" {
			var err error
			resolved, err = q.ResolveAnswer()
			if err != nil {
				// Banks are validated at load time, so this is a programming
				// error; abandon the question rather than corrupt the session.
				s.logger.Error("unresolvable answer at dispatch",
					zap.Int64("user_id", userID),
					zap.Int("index", sess.Cursor),
					zap.Error(err),
				)
				sess.Cursor++
				finished = sess.Cursor >= sess.MaxQuestions()
				return
			}
			q.Resolved = resolved
		}
		q.Options = shuffleOptions(q.Options)

		for i, opt := range q.Options {
			if opt == resolved {
				correct = i
				break
			}
		}

		index = sess.Cursor
		chatID = sess.ChatID
		text = fmt.Sprintf("%d. %s", sess.Cursor+1, q.Text)
		options = append([]string(nil), q.Options...)
		annot = q.Annotation()
		if sess.TimerEnabled {
			duration = questionDuration(*q, s.cfg.TimerBase, s.cfg.TimerMax)
		}
		proceed = true
	})

	if finished {
		s.complete(ctx, userID)
		return
	}
	if !proceed {
		// A skipped question re-enters dispatch until the run is done.
		if sess, ok := s.store.Get(userID); ok && sess.Active && !sess.Closing && sess.Cursor < sess.MaxQuestions() {
			s.dispatchNext(ctx, userID)
		}
		return
	}

	sent, err := s.sendQuestion(ctx, chatID, text, options, correct, annot, duration)
	if err != nil {
		s.logger.Error("failed to send question",
			zap.Int64("user_id", userID),
			zap.Int("index", index),
			zap.Error(err),
		)
		if nerr := s.transport.SendNotice(ctx, chatID, NoticeSendFailed); nerr != nil {
			s.logger.Debug("failed to send failure notice", zap.Error(nerr))
		}
	}

	s.store.Mutate(userID, func(sess *entities.Session) {
		if sess.Closing || !sess.Active || sess.Cursor != index {
			return
		}
		if err == nil {
			sess.PollID = sent.DispatchID
			sess.PollMessageID = sent.MessageID
		}
		// Armed even when the send failed: the timer path later resolves
		// the abandoned question the same way a hard timeout would.
		if sess.TimerEnabled {
			s.arm(sess, entities.TimerHard, duration)
		} else {
			s.arm(sess, entities.TimerInactivity, s.cfg.InactivityGrace)
		}
	})
}

// sendQuestion submits the send through the transport with the bounded
// retry contract: one fixed backoff, one retry, then the failure surfaces.
func (s *QuizService) sendQuestion(ctx context.Context, chatID int64, text string, options []string, correct int, annot string, timeLimit time.Duration) (SentQuestion, error) {
	sent, err := s.transport.SendQuestion(ctx, chatID, text, options, correct, annot, timeLimit)
	if err == nil || !errors.Is(err, ErrTransportTimeout) {
		return sent, err
	}

	s.logger.Warn("transport timeout, retrying send", zap.Int64("chat_id", chatID))
	time.Sleep(s.retryBackoff)
	return s.transport.SendQuestion(ctx, chatID, text, options, correct, annot, timeLimit)
}

// arm replaces the session's watchdog handle with a fresh timer. The prior
// handle, if any, is stopped first, so a session never has two live timers.
func (s *QuizService) arm(sess *entities.Session, kind entities.TimerKind, d time.Duration) {
	sess.Watchdog.Stop()

	sess.NextTimerSeq++
	seq := sess.NextTimerSeq
	userID := sess.UserID

	sess.Watchdog = &entities.WatchdogHandle{
		Seq:  seq,
		Kind: kind,
		Timer: time.AfterFunc(d, func() {
			s.timerFired(userID, seq)
		}),
	}
}

// timerFired is the watchdog callback. A fire whose sequence no longer
// matches the armed handle lost the race to the answer path (or to session
// removal) and is discarded.
func (s *QuizService) timerFired(userID int64, seq uint64) {
	const (
		actNone = iota
		actAdvance
		actComplete
		actForced
		actInactive
	)
	action := actNone

	s.store.Mutate(userID, func(sess *entities.Session) {
		if sess.Closing || sess.Watchdog == nil || sess.Watchdog.Seq != seq {
			return
		}
		kind := sess.Watchdog.Kind
		sess.Watchdog = nil

		if kind == entities.TimerInactivity {
			action = actInactive
			return
		}

		if !sess.Active {
			return
		}
		sess.PollID = ""
		sess.PollMessageID = 0

		sess.TimeoutStreak++
		if sess.TimeoutStreak >= s.cfg.TimeoutCeiling {
			action = actForced
			return
		}

		// A hard timeout counts as a submitted wrong answer with no
		// selection; the question is not queued for a retry pass.
		sess.Attempted++
		sess.Cursor++
		if sess.Cursor >= sess.MaxQuestions() {
			action = actComplete
		} else {
			action = actAdvance
		}
	})

	ctx := s.baseCtx
	switch action {
	case actAdvance:
		s.dispatchNext(ctx, userID)
	case actComplete:
		s.complete(ctx, userID)
	case actForced:
		if snap, claimed := s.claim(userID); claimed {
			s.finalize(ctx, userID, snap, reasonForced)
		}
	case actInactive:
		if snap, claimed := s.claim(userID); claimed {
			s.finalize(ctx, userID, snap, reasonInactive)
		}
	}
}

// complete handles the end of a pass: either offer a retry over the wrong
// questions or finalize outright.
func (s *QuizService) complete(ctx context.Context, userID int64) {
	var (
		offer  bool
		chatID int64
		sum    Summary
	)
	s.store.Mutate(userID, func(sess *entities.Session) {
		if sess.Closing {
			return
		}
		sess.Active = false
		sess.PollID = ""
		sess.PollMessageID = 0
		sess.CompletedRun = true

		chatID = sess.ChatID
		sum = Summary{
			Attempted:  sess.Attempted,
			Correct:    sess.Correct,
			Wrong:      sess.Attempted - sess.Correct,
			WrongCount: len(sess.WrongQuestions),
		}

		if !sess.RetryMode && len(sess.WrongQuestions) > 0 {
			offer = true
			// An ignored offer finalizes after the inactivity grace.
			s.arm(sess, entities.TimerInactivity, s.cfg.InactivityGrace)
		}
	})

	if offer {
		if err := s.transport.SendSummary(ctx, chatID, sum, true); err != nil {
			s.logger.Error("failed to send summary", zap.Int64("user_id", userID), zap.Error(err))
		}
		return
	}

	snap, claimed := s.claim(userID)
	if !claimed {
		return
	}
	s.finalize(ctx, userID, snap, reasonCompleted)

	if err := s.transport.SendSummary(ctx, chatID, sum, false); err != nil {
		s.logger.Error("failed to send summary", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// finalizeSnapshot carries everything finalize needs once the session has
// been claimed, so no further session reads are necessary.
type finalizeSnapshot struct {
	chatID        int64
	quizFile      string
	result        entities.QuizResult
	started       bool
	completedRun  bool
	pollMessageID int
}

// claim atomically marks the session as closing so exactly one path performs
// the terminal transition. All timer and answer activity observes the claim
// and becomes a no-op.
func (s *QuizService) claim(userID int64) (finalizeSnapshot, bool) {
	var snap finalizeSnapshot
	claimed := false
	s.store.Mutate(userID, func(sess *entities.Session) {
		if sess.Closing {
			return
		}
		sess.Closing = true
		sess.Active = false
		sess.Watchdog.Stop()
		sess.Watchdog = nil

		snap = finalizeSnapshot{
			chatID:        sess.ChatID,
			quizFile:      sess.QuizFile,
			result:        entities.ResultFromSession(sess),
			started:       sess.Started,
			completedRun:  sess.CompletedRun,
			pollMessageID: sess.PollMessageID,
		}
		sess.PollID = ""
		claimed = true
	})
	return snap, claimed
}

// finalize writes the terminal aggregate exactly once and removes the
// session immediately after the write, then notifies the user.
func (s *QuizService) finalize(ctx context.Context, userID int64, snap finalizeSnapshot, reason finalizeReason) {
	if snap.started {
		if err := s.ledger.FlushResult(ctx, userID, snap.result, snap.quizFile, snap.completedRun, s.now()); err != nil {
			s.logger.Error("failed to flush quiz result",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}

	s.store.Remove(userID)

	var err error
	switch reason {
	case reasonCompleted:
		// The completion summary is sent by the caller.
	case reasonCancelled:
		err = s.transport.SendNotice(ctx, snap.chatID, NoticeCancelled)
	case reasonInactive:
		err = s.transport.SendNotice(ctx, snap.chatID, NoticeInactive)
	case reasonForced:
		err = s.transport.SendNotice(ctx, snap.chatID, NoticeForcedStop)
	}
	if err != nil {
		s.logger.Error("failed to send terminal notice",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}

// questionDuration computes the per-question deadline from the amount of
// text the user has to read, clamped to [base, max].
func questionDuration(q entities.Question, base, max time.Duration) time.Duration {
	chars := len(q.Text)
	for _, opt := range q.Options {
		chars += len(opt)
	}

	d := base + time.Duration(chars/timerCharsPerSecond)*time.Second
	if d > max {
		d = max
	}
	return d
}

// shuffleOptions shuffles the options; a "none of the above" option is
// always sorted to the last position after the rest are shuffled.
func shuffleOptions(options []string) []string {
	noneIdx := -1
	for i, opt := range options {
		if strings.Contains(strings.ToLower(opt), noneOfTheAbove) {
			noneIdx = i
			break
		}
	}

	if noneIdx < 0 {
		shuffled := append([]string(nil), options...)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		return shuffled
	}

	rest := make([]string, 0, len(options)-1)
	rest = append(rest, options[:noneIdx]...)
	rest = append(rest, options[noneIdx+1:]...)
	rand.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
	return append(rest, options[noneIdx])
}
