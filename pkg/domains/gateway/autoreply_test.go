package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/entities"
)

func strPtr(s string) *string { return &s }

func TestMaybeReplyToggleMatrix(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*entities.Tenant)
		msg      Classified
		expected string
	}{
		{
			name:     "personal toggle on",
			mutate:   func(tn *entities.Tenant) { tn.ReplyPersonal = true },
			msg:      Classified{From: "628222" + constant.PERSON_SUFFIX, IsPersonal: true},
			expected: constant.DEFAULT_REPLY_PERSONAL,
		},
		{
			name:   "personal toggle off",
			mutate: nil,
			msg:    Classified{From: "628222" + constant.PERSON_SUFFIX, IsPersonal: true},
		},
		{
			name:     "group toggle on",
			mutate:   func(tn *entities.Tenant) { tn.ReplyGroup = true },
			msg:      Classified{From: "120363" + constant.GROUP_SUFFIX, IsGroup: true},
			expected: constant.DEFAULT_REPLY_GROUP,
		},
		{
			name:   "tag message with only group toggle stays silent",
			mutate: func(tn *entities.Tenant) { tn.ReplyTag = false; tn.ReplyGroup = false },
			msg:    Classified{From: "120363" + constant.GROUP_SUFFIX, IsGroup: true, IsTagGroup: true},
		},
		{
			name: "custom personal template",
			mutate: func(tn *entities.Tenant) {
				tn.ReplyPersonal = true
				tn.ReplyTemplatePersonal = strPtr("custom answer")
			},
			msg:      Classified{From: "628222" + constant.PERSON_SUFFIX, IsPersonal: true},
			expected: "custom answer",
		},
		{
			name: "empty template falls back to default",
			mutate: func(tn *entities.Tenant) {
				tn.ReplyPersonal = true
				tn.ReplyTemplatePersonal = strPtr("")
			},
			msg:      Classified{From: "628222" + constant.PERSON_SUFFIX, IsPersonal: true},
			expected: constant.DEFAULT_REPLY_PERSONAL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testDB(t)
			tenant := seedTenant(t, db, tt.mutate)
			cap := &fakeCapability{}
			session := newTestSession(t, db, tenant.ID, cap, &fakeNotifier{})

			NewAutoReply(NewRepo(db)).MaybeReply(context.Background(), session, tt.msg)

			sent := cap.sentMessages()
			if tt.expected == "" {
				assert.Empty(t, sent)
				assert.EqualValues(t, 0, countMessages(t, db, tenant.ID, constant.DIRECTION_OUT))
				return
			}
			require.Len(t, sent, 1)
			assert.Equal(t, tt.msg.From, sent[0].Address)
			assert.Equal(t, tt.expected, sent[0].Body)
			assert.EqualValues(t, 1, countMessages(t, db, tenant.ID, constant.DIRECTION_OUT))
		})
	}
}

func TestMaybeReplyTagTemplateWinsOverGroup(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, func(tn *entities.Tenant) {
		tn.ReplyGroup = true
		tn.ReplyTag = true
		tn.ReplyTemplateGroup = strPtr("group answer")
		tn.ReplyTemplateTag = strPtr("tag answer")
	})
	cap := &fakeCapability{}
	session := newTestSession(t, db, tenant.ID, cap, &fakeNotifier{})

	msg := Classified{From: "120363" + constant.GROUP_SUFFIX, IsGroup: true, IsTagGroup: true}
	NewAutoReply(NewRepo(db)).MaybeReply(context.Background(), session, msg)

	sent := cap.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "tag answer", sent[0].Body)
}

func TestMaybeReplyTagFallsBackToGroupToggle(t *testing.T) {
	// With the tag toggle off a tag-group message is still a group message.
	db := testDB(t)
	tenant := seedTenant(t, db, func(tn *entities.Tenant) {
		tn.ReplyGroup = true
		tn.ReplyTemplateGroup = strPtr("group answer")
	})
	cap := &fakeCapability{}
	session := newTestSession(t, db, tenant.ID, cap, &fakeNotifier{})

	msg := Classified{From: "120363" + constant.GROUP_SUFFIX, IsGroup: true, IsTagGroup: true}
	NewAutoReply(NewRepo(db)).MaybeReply(context.Background(), session, msg)

	sent := cap.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "group answer", sent[0].Body)
}

func TestMaybeReplyReadsConfigPerMessage(t *testing.T) {
	// Flipping a toggle takes effect on the next message, no restart needed.
	db := testDB(t)
	tenant := seedTenant(t, db, func(tn *entities.Tenant) { tn.ReplyPersonal = true })
	cap := &fakeCapability{}
	session := newTestSession(t, db, tenant.ID, cap, &fakeNotifier{})

	msg := Classified{From: "628222" + constant.PERSON_SUFFIX, IsPersonal: true}
	replier := NewAutoReply(NewRepo(db))

	replier.MaybeReply(context.Background(), session, msg)
	require.Len(t, cap.sentMessages(), 1)

	require.NoError(t, db.Model(&entities.Tenant{}).Where("id = ?", tenant.ID).
		Update("reply_personal", false).Error)

	replier.MaybeReply(context.Background(), session, msg)
	assert.Len(t, cap.sentMessages(), 1)
}

func TestMaybeReplySendFailureSkipsPersist(t *testing.T) {
	db := testDB(t)
	tenant := seedTenant(t, db, func(tn *entities.Tenant) { tn.ReplyPersonal = true })
	cap := &fakeCapability{sendErr: context.DeadlineExceeded}
	session := newTestSession(t, db, tenant.ID, cap, &fakeNotifier{})

	msg := Classified{From: "628222" + constant.PERSON_SUFFIX, IsPersonal: true}
	NewAutoReply(NewRepo(db)).MaybeReply(context.Background(), session, msg)

	assert.EqualValues(t, 0, countMessages(t, db, tenant.ID, constant.DIRECTION_OUT))
}
