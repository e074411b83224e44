package gateway

import (
	"context"

	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/entities"
	"go.uber.org/zap"
)

// AutoReply decides from the tenant's configuration whether an inbound
// message earns an automatic answer. The config is re-read per message, so a
// toggle change takes effect without a session restart.
type AutoReply struct {
	repo Repository
}

func NewAutoReply(repo Repository) *AutoReply {
	return &AutoReply{repo: repo}
}

// MaybeReply applies the per-class toggles. A tag-group message prefers the
// tag template when both the group and tag toggles are on. Send failures are
// logged, never retried.
func (a *AutoReply) MaybeReply(ctx context.Context, s *Session, msg Classified) {
	tenant, err := a.repo.FindTenant(ctx, s.TenantID)
	if err != nil {
		zap.S().Debugf("auto-reply %d: no tenant config: %v", s.TenantID, err)
		return
	}

	var template string
	switch {
	case msg.IsTagGroup && tenant.ReplyTag:
		template = templateOrDefault(tenant.ReplyTemplateTag, constant.DEFAULT_REPLY_TAG)
	case msg.IsGroup && tenant.ReplyGroup:
		template = templateOrDefault(tenant.ReplyTemplateGroup, constant.DEFAULT_REPLY_GROUP)
	case msg.IsPersonal && tenant.ReplyPersonal:
		template = templateOrDefault(tenant.ReplyTemplatePersonal, constant.DEFAULT_REPLY_PERSONAL)
	default:
		return
	}

	if err := s.Send(ctx, msg.From, template, nil); err != nil {
		zap.S().Errorf("auto-reply %d: send to %s failed: %v", s.TenantID, msg.From, err)
		return
	}

	err = a.repo.CreateMessage(ctx, &entities.Message{
		TenantID:  s.TenantID,
		Address:   msg.From,
		Body:      template,
		Direction: constant.DIRECTION_OUT,
		Status:    constant.MESSAGE_SENT,
	})
	if err != nil {
		zap.S().Errorf("auto-reply %d: persist failed: %v", s.TenantID, err)
	}
}

func templateOrDefault(template *string, fallback string) string {
	if template == nil || *template == "" {
		return fallback
	}
	return *template
}
