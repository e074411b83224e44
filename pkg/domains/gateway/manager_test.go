package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagateway/pkg/entities"
)

type fakeFactory struct {
	mu    sync.Mutex
	built []uint
	err   error
}

func (f *fakeFactory) build(tenantID uint, sessionDir string) (Capability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.built = append(f.built, tenantID)
	return &fakeCapability{}, nil
}

func (f *fakeFactory) buildCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.built)
}

func TestStartAllBootsEveryTenant(t *testing.T) {
	db := testDB(t)
	first := seedTenant(t, db, nil)
	second := seedTenant(t, db, nil)

	factory := &fakeFactory{}
	manager := NewManager(testGatewayConfig(), NewRepo(db), &fakeNotifier{}, factory.build)

	manager.StartAll(context.Background())

	_, exists := manager.Registry().Get(first.ID)
	assert.True(t, exists)
	_, exists = manager.Registry().Get(second.ID)
	assert.True(t, exists)
	assert.Equal(t, 2, factory.buildCount())
}

func TestStartSessionIsIdempotent(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)

	factory := &fakeFactory{}
	manager := NewManager(testGatewayConfig(), NewRepo(db), &fakeNotifier{}, factory.build)

	require.NoError(t, manager.StartSession(context.Background(), tenant.ID))
	require.NoError(t, manager.StartSession(context.Background(), tenant.ID))

	assert.Equal(t, 1, factory.buildCount())
}

func TestConcurrentStartSessionKeepsOneSession(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)

	// The factory parks every caller on the gate, so both starters pass the
	// registry check before either registers.
	entered := make(chan struct{}, 2)
	gate := make(chan struct{})
	var mu sync.Mutex
	var caps []*fakeCapability
	factory := func(tenantID uint, sessionDir string) (Capability, error) {
		entered <- struct{}{}
		<-gate
		cap := &fakeCapability{}
		mu.Lock()
		caps = append(caps, cap)
		mu.Unlock()
		return cap, nil
	}

	manager := NewManager(testGatewayConfig(), NewRepo(db), &fakeNotifier{}, factory)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.StartSession(context.Background(), tenant.ID))
		}()
	}
	<-entered
	<-entered
	close(gate)
	wg.Wait()

	mu.Lock()
	built := make([]*fakeCapability, len(caps))
	copy(built, caps)
	mu.Unlock()
	require.Len(t, built, 2)

	// One capability wins the registry slot, the other is torn down instead
	// of lingering with a live event feed.
	session, exists := manager.Registry().Get(tenant.ID)
	require.True(t, exists)

	var winner *fakeCapability
	destroyed := 0
	for _, c := range built {
		if c.isDestroyed() {
			destroyed++
		} else {
			winner = c
		}
	}
	assert.Equal(t, 1, destroyed)
	require.NotNil(t, winner)
	assert.Same(t, winner, session.cap)
}

func TestStartSessionUnknownTenant(t *testing.T) {
	db := testDB(t)
	factory := &fakeFactory{}
	manager := NewManager(testGatewayConfig(), NewRepo(db), &fakeNotifier{}, factory.build)

	err := manager.StartSession(context.Background(), 404)
	require.Error(t, err)
	_, exists := manager.Registry().Get(404)
	assert.False(t, exists)
}

func TestStopSessionRemovesFromRegistry(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)

	factory := &fakeFactory{}
	manager := NewManager(testGatewayConfig(), NewRepo(db), &fakeNotifier{}, factory.build)

	require.NoError(t, manager.StartSession(context.Background(), tenant.ID))
	manager.StopSession(tenant.ID)

	_, exists := manager.Registry().Get(tenant.ID)
	assert.False(t, exists)
}

func TestRestartSessionBuildsFreshCapability(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)

	factory := &fakeFactory{}
	manager := NewManager(testGatewayConfig(), NewRepo(db), &fakeNotifier{}, factory.build)

	require.NoError(t, manager.StartSession(context.Background(), tenant.ID))
	require.NoError(t, manager.RestartSession(context.Background(), tenant.ID))

	assert.Equal(t, 2, factory.buildCount())
	_, exists := manager.Registry().Get(tenant.ID)
	assert.True(t, exists)
}

func TestDisconnectTriggersReplacementSession(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)

	factory := &fakeFactory{}
	manager := NewManager(testGatewayConfig(), NewRepo(db), &fakeNotifier{}, factory.build)

	require.NoError(t, manager.StartSession(context.Background(), tenant.ID))
	session, _ := manager.Registry().Get(tenant.ID)

	session.HandleEvent(DisconnectedEvent{Reason: "stream closed"})
	_, exists := manager.Registry().Get(tenant.ID)
	assert.False(t, exists)

	// The replacement registers after the backoff delay.
	assert.Eventually(t, func() bool {
		replacement, ok := manager.Registry().Get(tenant.ID)
		return ok && replacement != session
	}, 3*time.Second, 50*time.Millisecond)
	assert.Equal(t, 2, factory.buildCount())
}

func TestRespawnEndsWhenTenantRemoved(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)

	factory := &fakeFactory{}
	manager := NewManager(testGatewayConfig(), NewRepo(db), &fakeNotifier{}, factory.build)

	require.NoError(t, manager.StartSession(context.Background(), tenant.ID))
	session, _ := manager.Registry().Get(tenant.ID)

	// The tenant disappears while the session is live; the factory would fail
	// on any further attempt.
	require.NoError(t, db.Delete(&entities.Tenant{}, tenant.ID).Error)
	factory.mu.Lock()
	factory.err = errors.New("no session storage")
	factory.mu.Unlock()

	session.HandleEvent(DisconnectedEvent{Reason: "stream closed"})

	// No replacement appears; the loop ends instead of retrying forever.
	time.Sleep(2500 * time.Millisecond)
	_, exists := manager.Registry().Get(tenant.ID)
	assert.False(t, exists)
}
