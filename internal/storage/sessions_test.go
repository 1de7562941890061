package storage

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhigitlit/revisely/internal/domain/entities"
)

func newTestSession(userID int64) *entities.Session {
	return entities.NewSession(userID, userID, "general/go.json", []entities.Question{
		{Text: "q1", Options: []string{"a", "b"}, Answer: "a"},
	})
}

func TestSessionStore_CreateRejectsSecond(t *testing.T) {
	store := NewSessionStore()

	require.NoError(t, store.Create(1, newTestSession(1)))
	err := store.Create(1, newTestSession(1))
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.Equal(t, 1, store.Len())
}

func TestSessionStore_MutateAbsentUser(t *testing.T) {
	store := NewSessionStore()

	called := false
	ok := store.Mutate(42, func(*entities.Session) { called = true })
	assert.False(t, ok)
	assert.False(t, called)
}

func TestSessionStore_MutateIsAtomic(t *testing.T) {
	store := NewSessionStore()
	require.NoError(t, store.Create(1, newTestSession(1)))

	const workers = 8
	const perWorker = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				store.Mutate(1, func(sess *entities.Session) {
					sess.Attempted++
				})
			}
		}()
	}
	wg.Wait()

	sess, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, workers*perWorker, sess.Attempted)
}

func TestSessionStore_RemoveThenMutate(t *testing.T) {
	store := NewSessionStore()
	require.NoError(t, store.Create(1, newTestSession(1)))

	store.Remove(1)
	store.Remove(1) // absent removal is a no-op

	ok := store.Mutate(1, func(*entities.Session) {
		t.Fatal("mutate ran against a removed session")
	})
	assert.False(t, ok)

	_, found := store.Get(1)
	assert.False(t, found)
	assert.Equal(t, 0, store.Len())
}
