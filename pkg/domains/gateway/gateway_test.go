package gateway

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wagateway/pkg/config"
	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/database"
	"github.com/wagateway/pkg/entities"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Shared fakes and fixtures for the gateway package tests.

type sentMessage struct {
	Address string
	Body    string
	Media   *Media
}

type fakeCapability struct {
	mu        sync.Mutex
	handlers  []func(evt interface{})
	sent      []sentMessage
	sendErr   error
	contacts  []ContactInfo
	self      *SelfInfo
	selfErr   error
	destroyed bool
}

func (f *fakeCapability) AddEventHandler(handler func(evt interface{})) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, handler)
}

func (f *fakeCapability) Initialize() error { return nil }

func (f *fakeCapability) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = true
}

func (f *fakeCapability) Contacts(ctx context.Context) ([]ContactInfo, error) {
	return f.contacts, nil
}

func (f *fakeCapability) ProfilePictureURL(ctx context.Context, address string) (string, error) {
	return "", nil
}

func (f *fakeCapability) SelfInfo(ctx context.Context) (*SelfInfo, error) {
	if f.selfErr != nil {
		return nil, f.selfErr
	}
	if f.self != nil {
		return f.self, nil
	}
	return &SelfInfo{NetworkID: "628111" + constant.PERSON_SUFFIX, DisplayName: "Test", PhoneNumber: "628111"}, nil
}

func (f *fakeCapability) Send(ctx context.Context, address, body string, media *Media) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{Address: address, Body: body, Media: media})
	return nil
}

func (f *fakeCapability) isDestroyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}

func (f *fakeCapability) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

type notifiedEvent struct {
	Event    string
	TenantID uint
	Payload  interface{}
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notifiedEvent
}

func (f *fakeNotifier) Emit(event string, tenantID uint, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, notifiedEvent{Event: event, TenantID: tenantID, Payload: payload})
}

func (f *fakeNotifier) byName(event string) []notifiedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notifiedEvent
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: ":memory:"}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func testGatewayConfig() config.Gateway {
	return config.Gateway{
		CountryCode:      "62",
		ReconnectSec:     1,
		ReadyTimeoutSec:  1,
		BroadcastDelayMs: 10,
	}
}

var folderSeq uint64

func seedTenant(t *testing.T, db *gorm.DB, mutate func(*entities.Tenant)) entities.Tenant {
	t.Helper()
	tenant := entities.Tenant{
		Name:          "acme",
		SecretKey:     "hashed",
		SessionFolder: fmt.Sprintf("folder-%d", atomic.AddUint64(&folderSeq, 1)),
		Status:        constant.STATUS_DISCONNECTED,
	}
	if mutate != nil {
		mutate(&tenant)
	}
	require.NoError(t, db.Create(&tenant).Error)
	return tenant
}

func newTestSession(t *testing.T, db *gorm.DB, tenantID uint, cap Capability, notifier Notifier) *Session {
	t.Helper()
	repo := NewRepo(db)
	return NewSession(tenantID, cap, repo, notifier, testGatewayConfig(), NewDispatcher(repo))
}

func countMessages(t *testing.T, db *gorm.DB, tenantID uint, direction string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&entities.Message{}).
		Where("tenant_id = ? AND direction = ?", tenantID, direction).Count(&n).Error)
	return n
}
