package query

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/theakash04/termify/internal/entity"
)

// Session is one conversation's state. Mu serializes turns: concurrent
// queries on the same session run one at a time, while different sessions
// proceed independently.
type Session struct {
	ID           string
	Mu           sync.Mutex
	Conversation entity.ConversationState
	Tenant       *entity.Tenant
}

// Store keeps sessions with a sliding TTL. Expired or deleted sessions
// pass through the eviction hook exactly once, which is where tenant
// namespaces get their best-effort cleanup.
type Store struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewStore builds a session store. The eviction hook runs with the
// session's lock held, so cleanup that mutates the tenant never races an
// in-flight turn; it fires from Delete and from the TTL janitor alike.
func NewStore(ttl, cleanupInterval time.Duration, onEvict func(*Session)) *Store {
	c := gocache.New(ttl, cleanupInterval)
	if onEvict != nil {
		c.OnEvicted(func(_ string, v interface{}) {
			if s, ok := v.(*Session); ok {
				s.Mu.Lock()
				defer s.Mu.Unlock()
				onEvict(s)
			}
		})
	}
	return &Store{cache: c, ttl: ttl}
}

// Create registers a new session and returns it.
func (st *Store) Create() *Session {
	s := &Session{ID: uuid.NewString()}
	st.cache.Set(s.ID, s, st.ttl)
	return s
}

// Get returns the session and extends its TTL.
func (st *Store) Get(id string) (*Session, bool) {
	v, ok := st.cache.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	st.cache.Set(id, s, st.ttl)
	return s, true
}

// Delete removes the session, firing the eviction hook.
func (st *Store) Delete(id string) bool {
	if _, ok := st.cache.Get(id); !ok {
		return false
	}
	st.cache.Delete(id)
	return true
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	return st.cache.ItemCount()
}
