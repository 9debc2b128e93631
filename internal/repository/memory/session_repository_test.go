package memory

import (
	"testing"
	"time"

	"convohealth-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(owner uuid.UUID) *store.RecordingSession {
	return &store.RecordingSession{ID: uuid.NewString(), OwnerID: owner, CreatedAt: time.Now()}
}

func TestSessionRepository_OneSessionPerOwner(t *testing.T) {
	repo := NewSessionRepository(time.Minute, nil)
	owner := uuid.New()

	first := newSession(owner)
	require.True(t, repo.Save(first))
	assert.True(t, repo.Save(first), "saving the same session again refreshes it")
	assert.False(t, repo.Save(newSession(owner)))

	assert.True(t, repo.Save(newSession(uuid.New())))
	assert.Equal(t, 2, repo.Count())
}

func TestSessionRepository_GetChecksOwnership(t *testing.T) {
	repo := NewSessionRepository(time.Minute, nil)
	owner, other := uuid.New(), uuid.New()
	sess := newSession(owner)
	require.True(t, repo.Save(sess))

	got, ok := repo.Get(owner, sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	_, ok = repo.Get(other, sess.ID)
	assert.False(t, ok)
	_, ok = repo.Get(owner, uuid.NewString())
	assert.False(t, ok)
}

func TestSessionRepository_EvictCallback(t *testing.T) {
	var evicted []string
	repo := NewSessionRepository(time.Minute, func(s *store.RecordingSession) {
		evicted = append(evicted, s.ID)
	})

	a, b := newSession(uuid.New()), newSession(uuid.New())
	require.True(t, repo.Save(a))
	require.True(t, repo.Save(b))

	repo.Touch(a)
	assert.Empty(t, evicted)

	repo.Delete(a.OwnerID)
	assert.Equal(t, []string{a.ID}, evicted)
	_, ok := repo.FindByOwner(a.OwnerID)
	assert.False(t, ok)

	repo.Flush()
	assert.ElementsMatch(t, []string{a.ID, b.ID}, evicted)
	assert.Zero(t, repo.Count())
}
