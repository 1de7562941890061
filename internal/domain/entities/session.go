package entities

import "time"

// TimerKind distinguishes the two watchdog timers a question can be guarded
// by. Exactly one of them is armed per dispatched question.
type TimerKind int

const (
	// TimerHard is the per-question deadline used in timer mode.
	TimerHard TimerKind = iota
	// TimerInactivity is the fixed grace period used in no-timer mode.
	TimerInactivity
)

// WatchdogHandle is the timer currently armed for a session. The handle is
// owned by the Session record: arming a new timer replaces (and stops) the
// previous handle, and a fired callback proves freshness by matching Seq.
type WatchdogHandle struct {
	Seq   uint64
	Kind  TimerKind
	Timer *time.Timer
}

// Stop cancels the underlying timer. Safe on a nil handle.
func (w *WatchdogHandle) Stop() {
	if w != nil && w.Timer != nil {
		w.Timer.Stop()
	}
}

// Session tracks one user's in-progress quiz run. All fields are mutated
// only inside the session store's atomic mutate contract.
type Session struct {
	UserID   int64
	ChatID   int64
	QuizFile string

	Questions []Question // fixed once loaded, shuffled exactly once
	Cursor    int        // index of the current question, monotonically non-decreasing
	Limit     int        // number of questions to ask this run
	Correct   int
	Attempted int

	TimerEnabled bool
	Active       bool // true only between quiz start and a terminal transition
	Started      bool // set once the quiz has begun; gates the terminal ledger write
	Closing      bool // set by the path that claimed the terminal transition
	Shuffled     bool
	RetryMode    bool // wrong answers are not re-recorded during a retry pass
	CompletedRun bool // at least one full pass finished naturally

	// PollID identifies the in-flight question awaiting an answer, empty
	// when none is outstanding. PollMessageID is kept for stop_poll.
	PollID        string
	PollMessageID int

	TimeoutStreak  int
	WrongQuestions []Question

	// Watchdog is the single armed timer for this session, nil when none.
	// NextTimerSeq feeds WatchdogHandle.Seq so stale fires are detectable.
	Watchdog     *WatchdogHandle
	NextTimerSeq uint64
}

// NewSession creates a configuring session over the given questions.
// The session becomes active once the user confirms limit and timer mode.
func NewSession(userID, chatID int64, quizFile string, questions []Question) *Session {
	return &Session{
		UserID:    userID,
		ChatID:    chatID,
		QuizFile:  quizFile,
		Questions: questions,
		Limit:     len(questions),
	}
}

// MaxQuestions returns how many questions this run will actually ask.
func (s *Session) MaxQuestions() int {
	if s.Limit < len(s.Questions) {
		return s.Limit
	}
	return len(s.Questions)
}

// CurrentQuestion returns a pointer to the question at the cursor, or nil
// when the cursor has run past the end of the run.
func (s *Session) CurrentQuestion() *Question {
	if s.Cursor >= s.MaxQuestions() {
		return nil
	}
	return &s.Questions[s.Cursor]
}

// RestartWithWrong resets the session for a single retry pass over the
// previously missed questions. Wrong questions are cleared so the retry is
// bounded to one pass.
func (s *Session) RestartWithWrong() {
	s.Questions = s.WrongQuestions
	s.WrongQuestions = nil
	s.Cursor = 0
	s.Limit = len(s.Questions)
	s.Correct = 0
	s.Attempted = 0
	s.TimeoutStreak = 0
	s.RetryMode = true
	s.Active = true
	s.PollID = ""
	s.PollMessageID = 0
}
