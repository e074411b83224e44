package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/entities"
	"go.uber.org/zap"
)

// Classified is an inbound message with its class resolved. Exactly one of
// personal / plain-group / tag-group holds, and IsTagGroup implies IsGroup.
type Classified struct {
	From      string
	Body      string
	Timestamp time.Time

	IsGroup        bool
	IsPersonal     bool
	MentionsTenant bool
	IsTagGroup     bool
}

// Classify resolves the message class from the source address suffix and the
// mention list.
func Classify(evt MessageEvent, selfAddress string) Classified {
	isGroup := strings.HasSuffix(evt.From, constant.GROUP_SUFFIX)
	mentions := false
	if selfAddress != "" {
		for _, m := range evt.Mentions {
			if m == selfAddress {
				mentions = true
				break
			}
		}
	}

	return Classified{
		From:           evt.From,
		Body:           evt.Body,
		Timestamp:      evt.Timestamp,
		IsGroup:        isGroup,
		IsPersonal:     !isGroup,
		MentionsTenant: mentions,
		IsTagGroup:     isGroup && mentions,
	}
}

// Dispatcher fans one inbound message event out to persistence, auto-reply
// and webhook delivery. Sub-step failures are logged and isolated; they never
// crash the session's event loop.
type Dispatcher struct {
	repo      Repository
	autoReply *AutoReply
	webhooks  *Fanout
}

func NewDispatcher(repo Repository) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		autoReply: NewAutoReply(repo),
		webhooks:  NewFanout(repo),
	}
}

func (d *Dispatcher) HandleInbound(ctx context.Context, s *Session, evt MessageEvent) {
	msg := Classify(evt, s.SelfAddress())

	// Inbound persistence is unconditional and happens before any reaction
	// logic, so exactly one IN row exists no matter what fires or fails next.
	err := d.repo.CreateMessage(ctx, &entities.Message{
		TenantID:  s.TenantID,
		Address:   msg.From,
		Body:      msg.Body,
		Direction: constant.DIRECTION_IN,
		Status:    constant.MESSAGE_SENT,
	})
	if err != nil {
		zap.S().Errorf("dispatch %d: inbound persist failed: %v", s.TenantID, err)
	}

	d.autoReply.MaybeReply(ctx, s, msg)
	d.webhooks.Dispatch(ctx, s, msg)
}

func (d *Dispatcher) HandleEcho(ctx context.Context, s *Session, evt SelfMessageEvent) {
	d.webhooks.DispatchEcho(ctx, s, evt)
}
