package telegram

import (
	"sync"
	"time"
)

// tapDebounce swallows repeated callback taps arriving within this window.
const tapDebounce = 2 * time.Second

// menuState is the per-user browsing state outside of any quiz session.
type menuState struct {
	path          string // current directory, relative to the bank root
	awaitingLimit bool
	limitTries    int
	lastTap       time.Time
}

type menuStore struct {
	mu sync.Mutex
	m  map[int64]*menuState
}

func newMenuStore() *menuStore {
	return &menuStore{m: make(map[int64]*menuState)}
}

func (s *menuStore) path(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.m[userID]; ok && st.path != "" {
		return st.path
	}
	return "."
}

// limitState reports whether the user is entering a custom question limit
// and how many input attempts remain.
func (s *menuStore) limitState(userID int64) (awaiting bool, tries int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.m[userID]; ok {
		return st.awaitingLimit, st.limitTries
	}
	return false, 0
}

// spendLimitTry burns one input attempt and returns how many remain.
func (s *menuStore) spendLimitTry(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.m[userID]
	if !ok || !st.awaitingLimit {
		return 0
	}
	st.limitTries--
	if st.limitTries <= 0 {
		st.awaitingLimit = false
		st.limitTries = 0
		return 0
	}
	return st.limitTries
}

// debounce reports whether this tap should be handled, recording it if so.
func (s *menuStore) debounce(userID int64, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.m[userID]
	if !ok {
		st = &menuState{path: "."}
		s.m[userID] = st
	}
	if now.Sub(st.lastTap) < tapDebounce {
		return false
	}
	st.lastTap = now
	return true
}

func (s *menuStore) setPath(userID int64, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.m[userID]
	if !ok {
		st = &menuState{}
		s.m[userID] = st
	}
	st.path = path
}

func (s *menuStore) awaitLimit(userID int64, tries int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.m[userID]; ok {
		st.awaitingLimit = true
		st.limitTries = tries
	}
}

func (s *menuStore) clearLimit(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.m[userID]; ok {
		st.awaitingLimit = false
		st.limitTries = 0
	}
}
