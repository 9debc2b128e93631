package memory

import (
	"time"

	"convohealth-be/pkg/store"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps live recording sessions, at most one per owner.
// Idle sessions expire after ttl; onEvict runs for every removal, including
// explicit deletes.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration, onEvict func(*store.RecordingSession)) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := cache.New(ttl, 10*time.Minute)
	if onEvict != nil {
		c.OnEvicted(func(_ string, v interface{}) {
			onEvict(v.(*store.RecordingSession))
		})
	}
	return &SessionRepository{
		cache: c,
	}
}

func ownerKey(owner uuid.UUID) string {
	return "owner:" + owner.String()
}

// Save registers the session under its owner. It fails with false when the
// owner already holds a different session.
func (r *SessionRepository) Save(session *store.RecordingSession) bool {
	if err := r.cache.Add(ownerKey(session.OwnerID), session, cache.DefaultExpiration); err != nil {
		existing, found := r.cache.Get(ownerKey(session.OwnerID))
		if !found || existing.(*store.RecordingSession).ID != session.ID {
			return false
		}
		r.cache.Set(ownerKey(session.OwnerID), session, cache.DefaultExpiration)
	}
	return true
}

// Touch extends the idle deadline of the owner's session.
func (r *SessionRepository) Touch(session *store.RecordingSession) {
	if current, ok := r.FindByOwner(session.OwnerID); ok && current.ID == session.ID {
		r.cache.Set(ownerKey(session.OwnerID), session, cache.DefaultExpiration)
	}
}

func (r *SessionRepository) FindByOwner(owner uuid.UUID) (*store.RecordingSession, bool) {
	if x, found := r.cache.Get(ownerKey(owner)); found {
		return x.(*store.RecordingSession), true
	}
	return nil, false
}

// Get returns the session only when it belongs to owner.
func (r *SessionRepository) Get(owner uuid.UUID, sessionID string) (*store.RecordingSession, bool) {
	s, ok := r.FindByOwner(owner)
	if !ok || s.ID != sessionID {
		return nil, false
	}
	return s, true
}

func (r *SessionRepository) Delete(owner uuid.UUID) {
	r.cache.Delete(ownerKey(owner))
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

// Flush drops every session, firing onEvict for each.
func (r *SessionRepository) Flush() {
	for key := range r.cache.Items() {
		r.cache.Delete(key)
	}
}
