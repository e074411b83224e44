package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wagateway/pkg/config"
	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/entities"
	"github.com/wagateway/pkg/utils"
	"go.uber.org/zap"
)

// Outcome is the per-target result of a send request.
type Outcome struct {
	Target  string `json:"target"`
	Address string `json:"address"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Sender accepts single and broadcast send requests, serializes them against
// the session's readiness signal, personalizes templates and records every
// delivery outcome.
type Sender struct {
	registry *Registry
	repo     Repository
	cfg      config.Gateway
}

func NewSender(registry *Registry, repo Repository, cfg config.Gateway) *Sender {
	return &Sender{
		registry: registry,
		repo:     repo,
		cfg:      cfg,
	}
}

// Send delivers the template to every target sequentially. More than one
// target makes the request a broadcast: contacts are pre-loaded for
// personalization and the inter-message delay acts as a rate limiter. A
// failed target is recorded and does not abort the rest. The only raised
// error is an unregistered tenant, since then the send did not happen at all.
func (sn *Sender) Send(ctx context.Context, tenantID uint, targets []string, template string, media *Media, delay time.Duration) ([]Outcome, error) {
	session, exists := sn.registry.Get(tenantID)
	if !exists {
		return nil, fmt.Errorf("tenant %d not initialized", tenantID)
	}

	session.WaitReady(ctx)

	broadcast := len(targets) > 1
	if delay <= 0 {
		delay = sn.cfg.BroadcastDelay()
	}

	var lookup map[string]entities.Contact
	if broadcast {
		contacts, err := sn.repo.ListContacts(ctx, tenantID)
		if err != nil {
			zap.S().Warnf("send %d: contact preload failed: %v", tenantID, err)
		} else {
			lookup = make(map[string]entities.Contact, len(contacts))
			for _, c := range contacts {
				lookup[c.Address] = c
			}
		}
	}

	outcomes := make([]Outcome, 0, len(targets))
	for i, target := range targets {
		address := utils.NormalizePhone(target, sn.cfg.DefaultCountryCode())

		// Unmatched addresses personalize with the raw target for both
		// placeholders.
		name, phone := target, target
		if contact, ok := lookup[address]; ok {
			if contact.Name != "" {
				name = contact.Name
			}
			if contact.Phone != "" {
				phone = contact.Phone
			}
		}

		body := utils.Personalize(template, name, phone)
		if strings.TrimSpace(body) == "" {
			body = constant.DEFAULT_MESSAGE_BODY
		}

		status := constant.MESSAGE_SENT
		outcome := Outcome{Target: target, Address: address, Status: status}
		if err := session.Send(ctx, address, body, media); err != nil {
			zap.S().Errorf("send %d: delivery to %s failed: %v", tenantID, address, err)
			status = constant.MESSAGE_FAILED
			outcome.Status = status
			outcome.Error = err.Error()
		}

		persistErr := sn.repo.CreateMessage(ctx, &entities.Message{
			TenantID:  tenantID,
			Address:   address,
			Body:      body,
			Direction: constant.DIRECTION_OUT,
			Status:    status,
		})
		if persistErr != nil {
			zap.S().Errorf("send %d: outcome persist failed: %v", tenantID, persistErr)
		}

		outcomes = append(outcomes, outcome)

		if broadcast && i < len(targets)-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return outcomes, nil
			}
		}
	}

	return outcomes, nil
}

// Schedule persists a SCHEDULED row only; the scheduler flushes it once due.
func (sn *Sender) Schedule(ctx context.Context, tenantID uint, to, body string, at time.Time) (*entities.Message, error) {
	if _, err := sn.repo.FindTenant(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("tenant %d not found: %v", tenantID, err)
	}

	msg := &entities.Message{
		TenantID:    tenantID,
		Address:     to,
		Body:        body,
		Direction:   constant.DIRECTION_OUT,
		Status:      constant.MESSAGE_SCHEDULED,
		ScheduledAt: &at,
	}
	if err := sn.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// FlushDue transitions every due SCHEDULED message to exactly one of
// SENT/FAILED. A row that left SCHEDULED is never picked up again; a FAILED
// scheduled message is not retried.
func (sn *Sender) FlushDue(ctx context.Context, now time.Time) {
	due, err := sn.repo.DueScheduled(ctx, now)
	if err != nil {
		zap.S().Errorf("scheduler flush: due query failed: %v", err)
		return
	}

	for _, msg := range due {
		status := constant.MESSAGE_SENT
		if err := sn.deliverScheduled(ctx, msg); err != nil {
			zap.S().Errorf("scheduler flush: message %d failed: %v", msg.ID, err)
			status = constant.MESSAGE_FAILED
		}
		if err := sn.repo.UpdateMessageStatus(ctx, msg.ID, status); err != nil {
			zap.S().Errorf("scheduler flush: status update for message %d failed: %v", msg.ID, err)
		}
	}
}

func (sn *Sender) deliverScheduled(ctx context.Context, msg entities.Message) error {
	session, exists := sn.registry.Get(msg.TenantID)
	if !exists {
		return fmt.Errorf("tenant %d not initialized", msg.TenantID)
	}

	session.WaitReady(ctx)

	address := utils.NormalizePhone(msg.Address, sn.cfg.DefaultCountryCode())
	body := msg.Body
	if strings.TrimSpace(body) == "" {
		body = constant.DEFAULT_MESSAGE_BODY
	}
	return session.Send(ctx, address, body, nil)
}
