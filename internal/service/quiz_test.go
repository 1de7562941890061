package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhigitlit/revisely/internal/config"
	"github.com/abhigitlit/revisely/internal/domain/entities"
	"github.com/abhigitlit/revisely/internal/storage"
)

// fakeTransport records every engine-side send. SendQuestion hands back a
// fresh dispatch id so tests can answer the way Telegram poll events do.
type fakeTransport struct {
	mu sync.Mutex

	questions []sentQuestionCall
	summaries []summaryCall
	notices   []Notice
	stopped   []int

	failQuestion error // consumed by the next SendQuestion call
	nextMsgID    int
}

type sentQuestionCall struct {
	chatID     int64
	text       string
	options    []string
	correct    int
	annotation string
	timeLimit  time.Duration
	dispatchID string
}

type summaryCall struct {
	chatID     int64
	sum        Summary
	offerRetry bool
}

func (f *fakeTransport) SendQuestion(_ context.Context, chatID int64, text string, options []string, correct int, annotation string, timeLimit time.Duration) (SentQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failQuestion; err != nil {
		f.failQuestion = nil
		return SentQuestion{}, err
	}

	f.nextMsgID++
	call := sentQuestionCall{
		chatID:     chatID,
		text:       text,
		options:    append([]string(nil), options...),
		correct:    correct,
		annotation: annotation,
		timeLimit:  timeLimit,
		dispatchID: uuid.NewString(),
	}
	f.questions = append(f.questions, call)
	return SentQuestion{DispatchID: call.dispatchID, MessageID: f.nextMsgID}, nil
}

func (f *fakeTransport) SendSummary(_ context.Context, chatID int64, sum Summary, offerRetry bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, summaryCall{chatID: chatID, sum: sum, offerRetry: offerRetry})
	return nil
}

func (f *fakeTransport) SendNotice(_ context.Context, _ int64, notice Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice)
	return nil
}

func (f *fakeTransport) StopPoll(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, messageID)
	return nil
}

func (f *fakeTransport) lastQuestion(t *testing.T) sentQuestionCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.questions)
	return f.questions[len(f.questions)-1]
}

func (f *fakeTransport) questionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.questions)
}

// fakeLedger is an in-memory Ledger.
type fakeLedger struct {
	mu sync.Mutex

	stats     map[int64]*entities.UserStats
	attempts  map[int64][]time.Time
	completed map[int64][]string
	flushes   []flushCall

	statsErr error
}

type flushCall struct {
	userID        int64
	result        entities.QuizResult
	quizFile      string
	markCompleted bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		stats:     make(map[int64]*entities.UserStats),
		attempts:  make(map[int64][]time.Time),
		completed: make(map[int64][]string),
	}
}

func (f *fakeLedger) GetOrCreate(_ context.Context, userID int64) (*entities.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	st, ok := f.stats[userID]
	if !ok {
		st = &entities.UserStats{UserID: userID}
		f.stats[userID] = st
	}
	return st, nil
}

func (f *fakeLedger) SetBlock(_ context.Context, userID int64, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.stats[userID]
	if !ok {
		st = &entities.UserStats{UserID: userID}
		f.stats[userID] = st
	}
	st.BlockUntil = &until
	return nil
}

func (f *fakeLedger) CountAttemptsSince(_ context.Context, userID int64, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, at := range f.attempts[userID] {
		if !at.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedger) RecordAttempt(_ context.Context, userID int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[userID] = append(f.attempts[userID], at)
	return nil
}

func (f *fakeLedger) FlushResult(_ context.Context, userID int64, res entities.QuizResult, quizFile string, markCompleted bool, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes = append(f.flushes, flushCall{userID: userID, result: res, quizFile: quizFile, markCompleted: markCompleted})
	if markCompleted {
		f.completed[userID] = append(f.completed[userID], quizFile)
	}
	return nil
}

func (f *fakeLedger) CompletedFiles(_ context.Context, userID int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.completed[userID]...), nil
}

func (f *fakeLedger) AllUserIDs(_ context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.stats))
	for id := range f.stats {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeLedger) flushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.flushes)
}

func (f *fakeLedger) lastFlush(t *testing.T) flushCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.flushes)
	return f.flushes[len(f.flushes)-1]
}

func testQuizConfig() config.Quiz {
	return config.Quiz{
		// Long enough that no watchdog fires on its own during a test;
		// timer paths are driven by calling timerFired directly.
		TimerBase:       time.Hour,
		TimerMax:        time.Hour,
		InactivityGrace: time.Hour,
		TimeoutCeiling:  4,
		MaxLimitTries:   5,
	}
}

type engineFixture struct {
	engine    *QuizService
	store     *storage.SessionStore
	transport *fakeTransport
	ledger    *fakeLedger
}

func newEngineFixture(t *testing.T, cfg config.Quiz) *engineFixture {
	t.Helper()

	transport := &fakeTransport{}
	ledger := newFakeLedger()
	store := storage.NewSessionStore()
	quota := NewQuotaService(ledger, config.Quota{MaxAttemptsPerHour: 100, BlockDuration: 20 * time.Minute}, nil)

	engine := NewQuizService(context.Background(), store, transport, ledger, quota, zap.NewNop(), cfg)
	engine.retryBackoff = 0

	return &engineFixture{engine: engine, store: store, transport: transport, ledger: ledger}
}

func threeQuestions() []entities.Question {
	return []entities.Question{
		{Text: "capital of France?", Options: []string{"Paris", "Lyon", "Nice"}, Answer: "Paris"},
		{Text: "2+2?", Options: []string{"3", "4"}, Answer: "4"},
		{Text: "largest ocean?", Options: []string{"Atlantic", "Pacific"}, Answer: "2"},
	}
}

// answerCurrent answers the outstanding question, correctly or not, using
// the correct index the transport observed.
func (fx *engineFixture) answerCurrent(t *testing.T, userID int64, correctly bool) {
	t.Helper()

	q := fx.transport.lastQuestion(t)
	selected := q.correct
	if !correctly {
		selected = (q.correct + 1) % len(q.options)
	}
	fx.engine.HandleAnswer(context.Background(), userID, q.dispatchID, selected)
}

func (fx *engineFixture) startQuiz(t *testing.T, userID int64, questions []entities.Question, limit int, timer bool) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, fx.engine.CreateSession(ctx, userID, userID, "general/go.json", questions))
	require.True(t, fx.engine.SetLimit(userID, limit))
	require.NoError(t, fx.engine.Begin(ctx, userID, timer))
}

func (fx *engineFixture) watchdogSeq(t *testing.T, userID int64) uint64 {
	t.Helper()

	var seq uint64
	ok := fx.store.Mutate(userID, func(sess *entities.Session) {
		require.NotNil(t, sess.Watchdog)
		seq = sess.Watchdog.Seq
	})
	require.True(t, ok)
	return seq
}

func TestQuiz_AllCorrectRun(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 3, false)

	for i := 0; i < 3; i++ {
		fx.answerCurrent(t, 1, true)
	}

	assert.Equal(t, 0, fx.store.Len(), "session should be removed")
	require.Equal(t, 1, fx.ledger.flushCount())

	flush := fx.ledger.lastFlush(t)
	assert.Equal(t, entities.QuizResult{QuizAttempted: 1, QuestionsAttempted: 3, Right: 3, Wrong: 0}, flush.result)
	assert.True(t, flush.markCompleted)
	assert.Equal(t, "general/go.json", flush.quizFile)

	require.Len(t, fx.transport.summaries, 1)
	sum := fx.transport.summaries[0]
	assert.False(t, sum.offerRetry)
	assert.Equal(t, Summary{Attempted: 3, Correct: 3, Wrong: 0, WrongCount: 0}, sum.sum)
	assert.Empty(t, fx.transport.notices)
}

func TestQuiz_LimitBoundsRun(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 2, false)

	fx.answerCurrent(t, 1, true)
	fx.answerCurrent(t, 1, true)

	assert.Equal(t, 2, fx.transport.questionCount(), "third question must not be sent")
	assert.Equal(t, 0, fx.store.Len())
	assert.Equal(t, 2, fx.ledger.lastFlush(t).result.QuestionsAttempted)
}

func TestQuiz_SetLimitValidation(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	ctx := context.Background()
	require.NoError(t, fx.engine.CreateSession(ctx, 1, 1, "general/go.json", threeQuestions()))

	assert.False(t, fx.engine.SetLimit(1, 0))
	assert.False(t, fx.engine.SetLimit(1, 4))
	assert.True(t, fx.engine.SetLimit(1, 3))

	n, ok := fx.engine.QuestionCount(1)
	require.True(t, ok)
	assert.Equal(t, 3, n)
}

func TestQuiz_WrongAnswersOfferRetry(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 3, false)

	fx.answerCurrent(t, 1, false)
	fx.answerCurrent(t, 1, true)
	fx.answerCurrent(t, 1, false)

	// Wrong answers keep the session alive pending the retry decision.
	assert.Equal(t, 1, fx.store.Len())
	assert.Equal(t, 0, fx.ledger.flushCount(), "no terminal write before the retry decision")

	require.Len(t, fx.transport.summaries, 1)
	sum := fx.transport.summaries[0]
	assert.True(t, sum.offerRetry)
	assert.Equal(t, Summary{Attempted: 3, Correct: 1, Wrong: 2, WrongCount: 2}, sum.sum)
}

func TestQuiz_RetryPassReplaysOnlyWrong(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 3, false)

	fx.answerCurrent(t, 1, false)
	fx.answerCurrent(t, 1, true)
	fx.answerCurrent(t, 1, false)

	require.True(t, fx.engine.AcceptRetry(context.Background(), 1))

	// Two wrong questions come around again.
	fx.answerCurrent(t, 1, true)
	fx.answerCurrent(t, 1, false)

	// A retry pass never offers another retry.
	assert.Equal(t, 0, fx.store.Len())
	require.Equal(t, 1, fx.ledger.flushCount())

	flush := fx.ledger.lastFlush(t)
	assert.Equal(t, entities.QuizResult{QuizAttempted: 1, QuestionsAttempted: 2, Right: 1, Wrong: 1}, flush.result)
	assert.True(t, flush.markCompleted, "first full pass marks the file completed")

	require.Len(t, fx.transport.summaries, 2)
	assert.False(t, fx.transport.summaries[1].offerRetry)
}

func TestQuiz_RetryKeepsIndexAnswerResolution(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())

	// The answer is an index key; once shuffled, re-resolving by index
	// would pick a different option.
	questions := []entities.Question{
		{Text: "largest ocean?", Options: []string{"Atlantic", "Pacific"}, Answer: "2"},
	}
	fx.startQuiz(t, 1, questions, 1, false)

	first := fx.transport.lastQuestion(t)
	assert.Equal(t, "Pacific", first.options[first.correct])

	fx.answerCurrent(t, 1, false)
	require.True(t, fx.engine.AcceptRetry(context.Background(), 1))

	retry := fx.transport.lastQuestion(t)
	assert.Equal(t, "Pacific", retry.options[retry.correct])
}

func TestQuiz_DeclineRetryFlushesFirstPass(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 2, false)

	fx.answerCurrent(t, 1, false)
	fx.answerCurrent(t, 1, true)

	fx.engine.DeclineRetry(context.Background(), 1)

	assert.Equal(t, 0, fx.store.Len())
	require.Equal(t, 1, fx.ledger.flushCount())
	flush := fx.ledger.lastFlush(t)
	assert.Equal(t, entities.QuizResult{QuizAttempted: 1, QuestionsAttempted: 2, Right: 1, Wrong: 1}, flush.result)
	assert.True(t, flush.markCompleted)

	// Only the offer summary was sent; declining adds nothing.
	assert.Len(t, fx.transport.summaries, 1)
}

func TestQuiz_AcceptRetryWithoutWrong(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	assert.False(t, fx.engine.AcceptRetry(context.Background(), 1))

	fx.startQuiz(t, 1, threeQuestions(), 1, false)
	assert.False(t, fx.engine.AcceptRetry(context.Background(), 1), "retry is not offered mid-quiz")
}

func TestQuiz_CancelFlushesOnce(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 3, false)
	fx.answerCurrent(t, 1, true)

	require.True(t, fx.engine.Cancel(context.Background(), 1))
	assert.False(t, fx.engine.Cancel(context.Background(), 1), "second cancel is a no-op")

	assert.Equal(t, 0, fx.store.Len())
	require.Equal(t, 1, fx.ledger.flushCount())

	flush := fx.ledger.lastFlush(t)
	assert.Equal(t, entities.QuizResult{QuizAttempted: 1, QuestionsAttempted: 1, Right: 1, Wrong: 0}, flush.result)
	assert.False(t, flush.markCompleted, "a cancelled run never marks the file completed")

	assert.Equal(t, []Notice{NoticeCancelled}, fx.transport.notices)
	assert.Len(t, fx.transport.stopped, 1, "in-flight poll should be stopped")
}

func TestQuiz_CancelBeforeStartSkipsLedger(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	ctx := context.Background()
	require.NoError(t, fx.engine.CreateSession(ctx, 1, 1, "general/go.json", threeQuestions()))

	require.True(t, fx.engine.Cancel(ctx, 1))
	assert.Equal(t, 0, fx.ledger.flushCount(), "a run that never began writes nothing")
	assert.Equal(t, 0, fx.store.Len())
}

func TestQuiz_StaleAnswerDiscarded(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 3, false)

	fx.engine.HandleAnswer(context.Background(), 1, "not-the-outstanding-poll", 0)

	sess, ok := fx.store.Get(1)
	require.True(t, ok)
	assert.Equal(t, 0, sess.Attempted)
	assert.Equal(t, 0, sess.Cursor)
	assert.Equal(t, 1, fx.transport.questionCount())
}

func TestQuiz_DuplicateAnswerDiscarded(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 3, false)

	first := fx.transport.lastQuestion(t)
	fx.engine.HandleAnswer(context.Background(), 1, first.dispatchID, first.correct)
	fx.engine.HandleAnswer(context.Background(), 1, first.dispatchID, first.correct)

	sess, ok := fx.store.Get(1)
	require.True(t, ok)
	assert.Equal(t, 1, sess.Attempted)
	assert.Equal(t, 1, sess.Correct)
}

func TestQuiz_HardTimeoutAdvances(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 3, true)

	seq := fx.watchdogSeq(t, 1)
	fx.engine.timerFired(1, seq)

	sess, ok := fx.store.Get(1)
	require.True(t, ok)
	assert.Equal(t, 1, sess.Attempted, "a timeout counts as an unanswered attempt")
	assert.Equal(t, 0, sess.Correct)
	assert.Equal(t, 1, sess.Cursor)
	assert.Equal(t, 1, sess.TimeoutStreak)
	assert.Empty(t, sess.WrongQuestions, "timed-out questions are not queued for retry")
	assert.Equal(t, 2, fx.transport.questionCount())
}

func TestQuiz_StaleTimerFireIgnored(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 3, true)

	staleSeq := fx.watchdogSeq(t, 1)
	fx.answerCurrent(t, 1, true)

	// The answer won the race; the old timer's fire must change nothing.
	fx.engine.timerFired(1, staleSeq)

	sess, ok := fx.store.Get(1)
	require.True(t, ok)
	assert.Equal(t, 1, sess.Attempted)
	assert.Equal(t, 1, sess.Cursor)
	assert.Equal(t, 0, sess.TimeoutStreak)
}

func TestQuiz_AnswerResetsTimeoutStreak(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 3, true)

	fx.engine.timerFired(1, fx.watchdogSeq(t, 1))
	fx.answerCurrent(t, 1, true)

	sess, ok := fx.store.Get(1)
	require.True(t, ok)
	assert.Equal(t, 0, sess.TimeoutStreak)
}

func TestQuiz_ConsecutiveTimeoutsForceStop(t *testing.T) {
	cfg := testQuizConfig()
	cfg.TimeoutCeiling = 2
	fx := newEngineFixture(t, cfg)
	fx.startQuiz(t, 1, threeQuestions(), 3, true)

	fx.engine.timerFired(1, fx.watchdogSeq(t, 1))
	fx.engine.timerFired(1, fx.watchdogSeq(t, 1))

	assert.Equal(t, 0, fx.store.Len())
	require.Equal(t, 1, fx.ledger.flushCount())

	flush := fx.ledger.lastFlush(t)
	// The forcing timeout itself is not counted as an attempt.
	assert.Equal(t, entities.QuizResult{QuizAttempted: 1, QuestionsAttempted: 1, Right: 0, Wrong: 1}, flush.result)
	assert.False(t, flush.markCompleted)

	assert.Equal(t, []Notice{NoticeForcedStop}, fx.transport.notices)
	assert.Empty(t, fx.transport.summaries)
}

func TestQuiz_InactivityFinalizes(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 3, false)
	fx.answerCurrent(t, 1, true)

	fx.engine.timerFired(1, fx.watchdogSeq(t, 1))

	assert.Equal(t, 0, fx.store.Len())
	require.Equal(t, 1, fx.ledger.flushCount())
	assert.Equal(t, 1, fx.ledger.lastFlush(t).result.QuestionsAttempted)
	assert.Equal(t, []Notice{NoticeInactive}, fx.transport.notices)
}

func TestQuiz_IgnoredRetryOfferFinalizes(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 1, false)
	fx.answerCurrent(t, 1, false)

	// A retry offer is pending with an inactivity grace armed.
	require.Equal(t, 1, fx.store.Len())
	fx.engine.timerFired(1, fx.watchdogSeq(t, 1))

	assert.Equal(t, 0, fx.store.Len())
	require.Equal(t, 1, fx.ledger.flushCount())
	assert.True(t, fx.ledger.lastFlush(t).markCompleted, "the pass did finish before the offer lapsed")
}

func TestQuiz_OneWatchdogPerQuestion(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.startQuiz(t, 1, threeQuestions(), 3, true)

	seq1 := fx.watchdogSeq(t, 1)
	fx.answerCurrent(t, 1, true)
	seq2 := fx.watchdogSeq(t, 1)

	assert.NotEqual(t, seq1, seq2, "each question arms a fresh watchdog")

	var handles int
	fx.store.Mutate(1, func(sess *entities.Session) {
		if sess.Watchdog != nil {
			handles = 1
		}
	})
	assert.Equal(t, 1, handles)
}

func TestQuiz_TransportTimeoutRetriedOnce(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.transport.failQuestion = ErrTransportTimeout

	fx.startQuiz(t, 1, threeQuestions(), 3, false)

	// The retry succeeded, so the question is outstanding as usual.
	assert.Equal(t, 1, fx.transport.questionCount())
	sess, ok := fx.store.Get(1)
	require.True(t, ok)
	assert.NotEmpty(t, sess.PollID)
}

func TestQuiz_NonTimeoutSendErrorNotRetried(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	fx.transport.failQuestion = errors.New("bad request")

	fx.startQuiz(t, 1, threeQuestions(), 3, false)

	// Send failed outright: no outstanding poll, failure notice sent, and
	// the inactivity watchdog is still armed to resolve the question.
	assert.Equal(t, 0, fx.transport.questionCount())
	assert.Equal(t, []Notice{NoticeSendFailed}, fx.transport.notices)

	sess, ok := fx.store.Get(1)
	require.True(t, ok)
	assert.Empty(t, sess.PollID)
	assert.NotNil(t, sess.Watchdog)
}

func TestQuiz_CreateSessionGuards(t *testing.T) {
	fx := newEngineFixture(t, testQuizConfig())
	ctx := context.Background()

	require.NoError(t, fx.engine.CreateSession(ctx, 1, 1, "a.json", threeQuestions()))
	err := fx.engine.CreateSession(ctx, 1, 1, "b.json", threeQuestions())
	assert.ErrorIs(t, err, storage.ErrAlreadyActive)
}

func TestQuestionDurationClamped(t *testing.T) {
	base := 10 * time.Second
	max := 30 * time.Second

	short := entities.Question{Text: "hi", Options: []string{"a", "b"}}
	assert.Equal(t, base, questionDuration(short, base, max))

	medium := entities.Question{
		Text:    string(make([]byte, 100)),
		Options: []string{string(make([]byte, 60)), string(make([]byte, 40))},
	}
	// 200 chars of reading at 20 chars/sec on top of the base.
	assert.Equal(t, 20*time.Second, questionDuration(medium, base, max))

	long := entities.Question{
		Text:    string(make([]byte, 290)),
		Options: []string{string(make([]byte, 99)), string(make([]byte, 99)), string(make([]byte, 99))},
	}
	assert.Equal(t, max, questionDuration(long, base, max))
}

func TestShuffleOptionsPinsNoneOfTheAbove(t *testing.T) {
	options := []string{"None of the above", "alpha", "beta", "gamma"}

	for i := 0; i < 20; i++ {
		shuffled := shuffleOptions(options)
		require.Len(t, shuffled, 4)
		assert.Equal(t, "None of the above", shuffled[len(shuffled)-1])
		assert.ElementsMatch(t, options, shuffled)
	}

	// Input must not be mutated.
	assert.Equal(t, "None of the above", options[0])
}

func TestShuffleOptionsWithoutNone(t *testing.T) {
	options := []string{"a", "b", "c"}
	shuffled := shuffleOptions(options)
	assert.ElementsMatch(t, options, shuffled)
}
