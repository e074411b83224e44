package gateway

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/wagateway/pkg/config"
	"go.uber.org/zap"
)

// Notifier is the fire-and-forget push channel used to broadcast qr/status
// events to browser clients.
type Notifier interface {
	Emit(event string, tenantID uint, payload interface{})
}

// Manager owns the session registry and the lifecycle of every tenant
// session: boot on process start, on-demand start after provisioning, and
// replacement after disconnects.
type Manager struct {
	cfg        config.Gateway
	repo       Repository
	registry   *Registry
	notifier   Notifier
	factory    CapabilityFactory
	dispatcher *Dispatcher
}

func NewManager(cfg config.Gateway, repo Repository, notifier Notifier, factory CapabilityFactory) *Manager {
	return &Manager{
		cfg:        cfg,
		repo:       repo,
		registry:   NewRegistry(),
		notifier:   notifier,
		factory:    factory,
		dispatcher: NewDispatcher(repo),
	}
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// StartAll boots a session for every known tenant. Individual failures are
// logged; one tenant must not prevent the others from starting.
func (m *Manager) StartAll(ctx context.Context) {
	tenants, err := m.repo.ListTenants(ctx)
	if err != nil {
		zap.S().Errorf("session boot: tenant listing failed: %v", err)
		return
	}
	for _, tenant := range tenants {
		if err := m.StartSession(ctx, tenant.ID); err != nil {
			zap.S().Errorf("session boot: tenant %d failed: %v", tenant.ID, err)
		}
	}
}

// StartSession creates, registers and initializes a session for the tenant.
// It is a no-op when a live session already exists, so a disconnect followed
// by the backoff delay registers exactly one replacement.
func (m *Manager) StartSession(ctx context.Context, tenantID uint) error {
	if _, exists := m.registry.Get(tenantID); exists {
		return nil
	}

	tenant, err := m.repo.FindTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("tenant %d not found: %v", tenantID, err)
	}

	capability, err := m.factory(tenantID, filepath.Join(m.cfg.SessionsRoot(), tenant.SessionFolder))
	if err != nil {
		return fmt.Errorf("capability init for tenant %d failed: %v", tenantID, err)
	}

	session := NewSession(tenantID, capability, m.repo, m.notifier, m.cfg, m.dispatcher)
	session.respawn = m.respawn
	session.unregister = m.registry.Remove

	// A concurrent starter may have registered between the Get above and
	// here. The registry decides the winner; the loser's capability never
	// got an event handler, so destroying it leaks nothing.
	if !m.registry.RegisterIfAbsent(tenantID, session) {
		capability.Destroy()
		return nil
	}
	capability.AddEventHandler(session.HandleEvent)

	go func() {
		if err := capability.Initialize(); err != nil {
			zap.S().Errorf("session %d: initialize failed: %v", tenantID, err)
			session.HandleEvent(DisconnectedEvent{Reason: err.Error()})
		}
	}()

	zap.S().Infof("session %d: started", tenantID)
	return nil
}

// StopSession tears down a tenant's session without scheduling a replacement.
func (m *Manager) StopSession(tenantID uint) {
	if session, exists := m.registry.Get(tenantID); exists {
		session.Stop()
		zap.S().Infof("session %d: stopped", tenantID)
	}
}

// RestartSession replaces a tenant's session, picking up changed
// configuration.
func (m *Manager) RestartSession(ctx context.Context, tenantID uint) error {
	m.StopSession(tenantID)
	return m.StartSession(ctx, tenantID)
}

func (m *Manager) respawn(tenantID uint) {
	ctx := context.Background()
	err := m.StartSession(ctx, tenantID)
	if err == nil {
		return
	}

	// A deleted tenant ends the reconnect loop; anything else retries after
	// the same fixed delay, without an attempt cap.
	if _, findErr := m.repo.FindTenant(ctx, tenantID); findErr != nil {
		zap.S().Infof("session %d: tenant removed, ending reconnect loop", tenantID)
		return
	}
	zap.S().Errorf("session %d: respawn failed, retrying in %s: %v", tenantID, m.cfg.ReconnectDelay(), err)
	time.AfterFunc(m.cfg.ReconnectDelay(), func() {
		m.respawn(tenantID)
	})
}
