package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/wagateway/pkg/config"
	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/entities"
	"github.com/wagateway/pkg/push"
	"go.uber.org/zap"
)

// Session is the finite-state machine owning one tenant's connection:
// INITIALIZING -> SCANNING -> CONNECTED -> DISCONNECTED, with DISCONNECTED
// looping back to a freshly created instance after the reconnect delay.
// Every status transition persists the tenant's status and broadcasts it on
// the push channel; the two effects are not transactional.
type Session struct {
	TenantID uint

	cap        Capability
	repo       Repository
	notifier   Notifier
	cfg        config.Gateway
	dispatcher *Dispatcher

	// respawn schedules a replacement session after a disconnect;
	// unregister removes this instance from the registry. Both are wired by
	// the manager.
	respawn    func(tenantID uint)
	unregister func(tenantID uint)

	// ready is the one-shot readiness signal, resolved on CONNECTED. It is
	// created fresh per session instance and replaced, never reset.
	ready     chan struct{}
	readyOnce sync.Once

	mu          sync.RWMutex
	status      string
	selfAddress string
	stopped     bool
}

func NewSession(tenantID uint, cap Capability, repo Repository, notifier Notifier, cfg config.Gateway, dispatcher *Dispatcher) *Session {
	return &Session{
		TenantID:   tenantID,
		cap:        cap,
		repo:       repo,
		notifier:   notifier,
		cfg:        cfg,
		dispatcher: dispatcher,
		ready:      make(chan struct{}),
		status:     constant.STATUS_DISCONNECTED,
	}
}

// HandleEvent consumes one capability event. Events of a single session are
// delivered sequentially by the capability's own loop.
func (s *Session) HandleEvent(evt interface{}) {
	ctx := context.Background()
	switch v := evt.(type) {
	case QRChallengeEvent:
		s.onScanning(ctx, v)
	case ReadyEvent:
		s.onConnected(ctx)
	case AuthFailureEvent:
		zap.S().Warnf("session %d: auth failure: %s", s.TenantID, v.Reason)
		s.setStatus(ctx, constant.STATUS_SCANNING)
	case StateChangedEvent:
		if v.Connected {
			s.setStatus(ctx, constant.STATUS_CONNECTED)
		} else {
			s.setStatus(ctx, constant.STATUS_DISCONNECTED)
		}
	case DisconnectedEvent:
		s.onDisconnected(ctx, v)
	case MessageEvent:
		s.dispatcher.HandleInbound(ctx, s, v)
	case SelfMessageEvent:
		s.dispatcher.HandleEcho(ctx, s, v)
	}
}

// WaitReady blocks until the session is connected, the readiness timeout
// elapses, or the context is done. A timed-out wait does not cancel the
// connection attempt; callers proceed optimistically and the send itself may
// fail downstream.
func (s *Session) WaitReady(ctx context.Context) {
	select {
	case <-s.ready:
	case <-time.After(s.cfg.ReadyTimeout()):
		zap.S().Warnf("session %d: readiness wait timed out after %s, proceeding", s.TenantID, s.cfg.ReadyTimeout())
	case <-ctx.Done():
	}
}

// Send delivers one message through the capability.
func (s *Session) Send(ctx context.Context, address, body string, media *Media) error {
	return s.cap.Send(ctx, address, body, media)
}

// SelfAddress is the tenant's own canonical network address, known once the
// session has connected at least once.
func (s *Session) SelfAddress() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selfAddress
}

func (s *Session) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Stop tears the session down without scheduling a replacement. Used when the
// tenant itself is removed.
func (s *Session) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cap.Destroy()
	if s.unregister != nil {
		s.unregister(s.TenantID)
	}
}

func (s *Session) onScanning(ctx context.Context, evt QRChallengeEvent) {
	s.setStatus(ctx, constant.STATUS_SCANNING)

	payload := map[string]interface{}{"code": evt.Code}
	if image, err := push.QRDataURL(evt.Code); err != nil {
		zap.S().Warnf("session %d: qr image encoding failed: %v", s.TenantID, err)
	} else {
		payload["image"] = image
	}
	s.notifier.Emit(constant.EVENT_QR, s.TenantID, payload)
}

func (s *Session) onConnected(ctx context.Context) {
	s.setStatus(ctx, constant.STATUS_CONNECTED)

	if info, err := s.cap.SelfInfo(ctx); err != nil {
		zap.S().Warnf("session %d: self identity fetch failed: %v", s.TenantID, err)
	} else {
		s.mu.Lock()
		s.selfAddress = info.NetworkID
		s.mu.Unlock()
		if err := s.repo.UpdateTenantIdentity(ctx, s.TenantID, *info); err != nil {
			zap.S().Errorf("session %d: identity persist failed: %v", s.TenantID, err)
		}
	}

	s.syncContacts(ctx)

	s.readyOnce.Do(func() {
		close(s.ready)
	})
}

func (s *Session) onDisconnected(ctx context.Context, evt DisconnectedEvent) {
	zap.S().Infof("session %d: disconnected: %s", s.TenantID, evt.Reason)
	s.setStatus(ctx, constant.STATUS_DISCONNECTED)

	s.cap.Destroy()
	if s.unregister != nil {
		s.unregister(s.TenantID)
	}

	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped || s.respawn == nil {
		return
	}

	// Replacement is scheduled after a fixed backoff, not immediately, to
	// avoid thrash. The retry loop is unbounded.
	tenantID := s.TenantID
	respawn := s.respawn
	time.AfterFunc(s.cfg.ReconnectDelay(), func() {
		respawn(tenantID)
	})
}

func (s *Session) syncContacts(ctx context.Context) {
	contacts, err := s.cap.Contacts(ctx)
	if err != nil {
		zap.S().Warnf("session %d: contact sync failed: %v", s.TenantID, err)
		return
	}

	for _, c := range contacts {
		err := s.repo.UpsertContact(ctx, entities.Contact{
			TenantID:  s.TenantID,
			Address:   c.Address,
			Name:      c.Name,
			Phone:     c.Phone,
			AvatarURL: c.AvatarURL,
			Kind:      c.Kind,
		})
		if err != nil {
			zap.S().Warnf("session %d: contact upsert failed for %s: %v", s.TenantID, c.Address, err)
		}
	}
	zap.S().Infof("session %d: synchronized %d contacts", s.TenantID, len(contacts))
}

func (s *Session) setStatus(ctx context.Context, status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	if err := s.repo.UpdateTenantStatus(ctx, s.TenantID, status); err != nil {
		zap.S().Errorf("session %d: status persist failed: %v", s.TenantID, err)
	}
	// Push delivery is fire-and-forget; failures are not propagated.
	s.notifier.Emit(constant.EVENT_STATUS, s.TenantID, status)
}
