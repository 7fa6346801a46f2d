package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/adapters/redis"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/aretw0/concierge/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency to provoke race conditions if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, id string) (*domain.DialogueSession, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func (s slowStore) Save(ctx context.Context, id string, sess *domain.DialogueSession) error {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Save(ctx, id, sess)
}

func incrementConcurrently(t *testing.T, mgr *session.Manager, workers int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, mgr.Save(ctx, "conv", &domain.DialogueSession{ID: "s", Attempts: map[string]int{}}))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, "conv", func(ctx context.Context) error {
				s, err := mgr.Store().Load(ctx, "conv")
				if err != nil {
					return err
				}
				s.Attempts["n"]++
				return mgr.Store().Save(ctx, "conv", s)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := mgr.Load(ctx, "conv")
	require.NoError(t, err)
	assert.Equal(t, workers, s.Attempts["n"], "every read-modify-write must be serialized")
}

func TestManager_SerializesTurns(t *testing.T) {
	mgr := session.NewManager(slowStore{memory.NewStore()})
	incrementConcurrently(t, mgr, 20)
}

func TestManager_DistributedLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})

	store := redis.NewFromClient(client)
	locker := redis.NewLocker(client, "test:", redis.WithRetryInterval(5*time.Millisecond))
	mgr := session.NewManager(store, session.WithLocker(locker), session.WithLockTTL(5*time.Second))

	incrementConcurrently(t, mgr, 5)
	assert.False(t, mr.Exists("test:lock:conv"), "lock released after each turn")
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string, time.Duration) (ports.UnlockFunc, error) {
	return nil, errors.New("redis down")
}

func TestManager_LockFailureSkipsFn(t *testing.T) {
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(failingLocker{}))
	called := false
	err := mgr.WithLock(context.Background(), "conv", func(context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestManager_Reap(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(memory.NewStore())
	now := time.Now()

	require.NoError(t, mgr.Save(ctx, "old", &domain.DialogueSession{ID: "a", UpdatedAt: now.Add(-time.Hour)}))
	require.NoError(t, mgr.Save(ctx, "fresh", &domain.DialogueSession{ID: "b", UpdatedAt: now}))

	reaped, err := mgr.Reap(ctx, func(s *domain.DialogueSession) bool {
		return s.Expired(now, 30*time.Minute)
	})
	require.NoError(t, err)
	require.Len(t, reaped, 1)
	assert.Equal(t, "a", reaped[0].ID)

	ids, _ := mgr.List(ctx)
	assert.Equal(t, []string{"fresh"}, ids)
}
