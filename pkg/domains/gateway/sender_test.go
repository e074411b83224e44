package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/entities"
	"gorm.io/gorm"
)

// readySession builds a registered session whose readiness signal already
// resolved, so sends do not sit out the readiness timeout.
func readySession(t *testing.T, db *gorm.DB, tenantID uint, cap Capability) (*Registry, *Session) {
	t.Helper()
	session := newTestSession(t, db, tenantID, cap, &fakeNotifier{})
	session.readyOnce.Do(func() { close(session.ready) })
	registry := NewRegistry()
	registry.Register(tenantID, session)
	return registry, session
}

func TestSendUnregisteredTenant(t *testing.T) {
	db := testDB(t)
	sender := NewSender(NewRegistry(), NewRepo(db), testGatewayConfig())

	_, err := sender.Send(context.Background(), 42, []string{"0812"}, "hi", nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")

	// The refusal leaves no rows behind.
	assert.EqualValues(t, 0, countMessages(t, db, 42, constant.DIRECTION_OUT))
}

func TestSendSingleTarget(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)
	cap := &fakeCapability{}
	registry, _ := readySession(t, db, tenant.ID, cap)
	sender := NewSender(registry, NewRepo(db), testGatewayConfig())

	outcomes, err := sender.Send(context.Background(), tenant.ID, []string{"0812345"}, "hi {{name}}", nil, 0)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, constant.MESSAGE_SENT, outcomes[0].Status)
	assert.Equal(t, "62812345"+constant.PERSON_SUFFIX, outcomes[0].Address)

	sent := cap.sentMessages()
	require.Len(t, sent, 1)
	// Single sends skip the contact preload; placeholders resolve to the raw
	// target.
	assert.Equal(t, "hi 0812345", sent[0].Body)

	var row entities.Message
	require.NoError(t, db.Where("tenant_id = ?", tenant.ID).First(&row).Error)
	assert.Equal(t, constant.DIRECTION_OUT, row.Direction)
	assert.Equal(t, constant.MESSAGE_SENT, row.Status)
}

func TestSendBroadcastPersonalization(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)
	cap := &fakeCapability{}
	registry, _ := readySession(t, db, tenant.ID, cap)

	require.NoError(t, db.Create(&entities.Contact{
		TenantID: tenant.ID,
		Address:  "628111" + constant.PERSON_SUFFIX,
		Name:     "Alice",
		Phone:    "628111",
		Kind:     constant.CONTACT_PERSONAL,
	}).Error)

	sender := NewSender(registry, NewRepo(db), testGatewayConfig())
	outcomes, err := sender.Send(context.Background(), tenant.ID,
		[]string{"628111", "628999"}, "hi {{NAME}} ({{phone}})", nil, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	sent := cap.sentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "hi Alice (628111)", sent[0].Body)
	// The unmatched target personalizes with the raw target for both
	// placeholders.
	assert.Equal(t, "hi 628999 (628999)", sent[1].Body)

	assert.EqualValues(t, 2, countMessages(t, db, tenant.ID, constant.DIRECTION_OUT))
}

func TestSendBroadcastHonorsDelay(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)
	cap := &fakeCapability{}
	registry, _ := readySession(t, db, tenant.ID, cap)
	sender := NewSender(registry, NewRepo(db), testGatewayConfig())

	delay := 50 * time.Millisecond
	start := time.Now()
	_, err := sender.Send(context.Background(), tenant.ID,
		[]string{"628111", "628222", "628333"}, "hi", nil, delay)
	require.NoError(t, err)

	// Two inter-message gaps for three targets.
	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestSendFailedTargetDoesNotAbortRest(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)
	cap := &fakeCapability{sendErr: errors.New("socket closed")}
	registry, _ := readySession(t, db, tenant.ID, cap)
	sender := NewSender(registry, NewRepo(db), testGatewayConfig())

	outcomes, err := sender.Send(context.Background(), tenant.ID,
		[]string{"628111", "628222"}, "hi", nil, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, constant.MESSAGE_FAILED, outcomes[0].Status)
	assert.Equal(t, constant.MESSAGE_FAILED, outcomes[1].Status)
	assert.Contains(t, outcomes[0].Error, "socket closed")

	var rows []entities.Message
	require.NoError(t, db.Where("tenant_id = ?", tenant.ID).Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, constant.MESSAGE_FAILED, row.Status)
	}
}

func TestSendEmptyTemplateUsesPlaceholderBody(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)
	cap := &fakeCapability{}
	registry, _ := readySession(t, db, tenant.ID, cap)
	sender := NewSender(registry, NewRepo(db), testGatewayConfig())

	_, err := sender.Send(context.Background(), tenant.ID, []string{"628111"}, "   ", nil, 0)
	require.NoError(t, err)

	sent := cap.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, constant.DEFAULT_MESSAGE_BODY, sent[0].Body)
}

func TestScheduleCreatesScheduledRow(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)
	sender := NewSender(NewRegistry(), NewRepo(db), testGatewayConfig())

	at := time.Now().Add(time.Hour)
	msg, err := sender.Schedule(context.Background(), tenant.ID, "628111", "later", at)
	require.NoError(t, err)
	assert.Equal(t, constant.MESSAGE_SCHEDULED, msg.Status)
	require.NotNil(t, msg.ScheduledAt)

	// Scheduling works while the session is down; delivery is deferred.
	var row entities.Message
	require.NoError(t, db.First(&row, msg.ID).Error)
	assert.Equal(t, constant.MESSAGE_SCHEDULED, row.Status)
}

func TestScheduleUnknownTenant(t *testing.T) {
	db := testDB(t)
	sender := NewSender(NewRegistry(), NewRepo(db), testGatewayConfig())

	_, err := sender.Schedule(context.Background(), 99, "628111", "later", time.Now())
	require.Error(t, err)
}

func TestFlushDueDeliversAndSettles(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)
	cap := &fakeCapability{}
	registry, _ := readySession(t, db, tenant.ID, cap)
	sender := NewSender(registry, NewRepo(db), testGatewayConfig())

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	due, err := sender.Schedule(context.Background(), tenant.ID, "628111", "due now", past)
	require.NoError(t, err)
	notDue, err := sender.Schedule(context.Background(), tenant.ID, "628222", "not yet", future)
	require.NoError(t, err)

	sender.FlushDue(context.Background(), time.Now())

	var settled, pending entities.Message
	require.NoError(t, db.First(&settled, due.ID).Error)
	require.NoError(t, db.First(&pending, notDue.ID).Error)
	assert.Equal(t, constant.MESSAGE_SENT, settled.Status)
	assert.Equal(t, constant.MESSAGE_SCHEDULED, pending.Status)

	require.Len(t, cap.sentMessages(), 1)
	assert.Equal(t, "due now", cap.sentMessages()[0].Body)

	// A settled row never flushes twice.
	sender.FlushDue(context.Background(), time.Now())
	assert.Len(t, cap.sentMessages(), 1)
}

func TestFlushDueMissingSessionMarksFailed(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, nil)
	sender := NewSender(NewRegistry(), NewRepo(db), testGatewayConfig())

	msg, err := sender.Schedule(context.Background(), tenant.ID, "628111", "orphaned", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	sender.FlushDue(context.Background(), time.Now())

	var row entities.Message
	require.NoError(t, db.First(&row, msg.ID).Error)
	assert.Equal(t, constant.MESSAGE_FAILED, row.Status)

	// FAILED is terminal; the next flush does not pick the row up again.
	sender.FlushDue(context.Background(), time.Now())
	require.NoError(t, db.First(&row, msg.ID).Error)
	assert.Equal(t, constant.MESSAGE_FAILED, row.Status)
}
