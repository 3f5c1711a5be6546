package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theakash04/termify/internal/entity"
	"github.com/theakash04/termify/internal/index"
	"github.com/theakash04/termify/internal/tenant"
)

func TestStore_CreateGetDelete(t *testing.T) {
	store := NewStore(time.Minute, time.Minute, nil)

	s := store.Create()
	require.NotEmpty(t, s.ID)

	got, ok := store.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	assert.True(t, store.Delete(s.ID))
	assert.False(t, store.Delete(s.ID))
	_, ok = store.Get(s.ID)
	assert.False(t, ok)
}

// Eviction tears the tenant down, which mutates its state. That must be
// serialized with turns reading the state under the session lock.
func TestStore_EvictionHoldsSessionLock(t *testing.T) {
	svc := index.NewMockService()
	mgr := tenant.NewManager(svc, nil)

	store := NewStore(time.Minute, time.Minute, func(s *Session) {
		if s.Tenant != nil {
			mgr.Teardown(context.Background(), s.Tenant)
		}
	})

	s := store.Create()
	tn, err := mgr.Provision(context.Background())
	require.NoError(t, err)
	require.NoError(t, mgr.Ingest(context.Background(), tn, []entity.Chunk{{Text: "x"}}))
	s.Mu.Lock()
	s.Tenant = tn
	s.Mu.Unlock()

	// A turn-shaped reader: lock, read tenant state, unlock. Run it
	// concurrently with eviction; the race detector flags any unlocked
	// state write from the eviction hook.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			s.Mu.Lock()
			_ = s.Tenant.State
			s.Mu.Unlock()
		}
	}()

	assert.True(t, store.Delete(s.ID))
	<-done

	s.Mu.Lock()
	defer s.Mu.Unlock()
	assert.Equal(t, entity.TenantTornDown, s.Tenant.State)
	assert.False(t, svc.HasNamespace(tn.Namespace))
}

// The TTL janitor goes through the same locked hook as Delete.
func TestStore_ExpiryEvictionHoldsSessionLock(t *testing.T) {
	svc := index.NewMockService()
	mgr := tenant.NewManager(svc, nil)

	store := NewStore(20*time.Millisecond, 10*time.Millisecond, func(s *Session) {
		if s.Tenant != nil {
			mgr.Teardown(context.Background(), s.Tenant)
		}
	})

	s := store.Create()
	tn, err := mgr.Provision(context.Background())
	require.NoError(t, err)
	require.NoError(t, mgr.Ingest(context.Background(), tn, []entity.Chunk{{Text: "x"}}))
	s.Mu.Lock()
	s.Tenant = tn
	s.Mu.Unlock()

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				s.Mu.Lock()
				_ = s.Tenant.State
				s.Mu.Unlock()
			}
		}
	}()
	defer close(stop)

	assert.Eventually(t, func() bool {
		return !svc.HasNamespace(tn.Namespace)
	}, 2*time.Second, 10*time.Millisecond)
}
