package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/entities"
	"github.com/wagateway/pkg/utils"
	"go.uber.org/zap"
)

// Fanout delivers inbound and self-echo message events to every configured
// webhook whose routing flags match. Deliveries are independent: one failing
// endpoint never blocks the others.
type Fanout struct {
	repo   Repository
	client *http.Client
}

func NewFanout(repo Repository) *Fanout {
	return &Fanout{
		repo: repo,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type inboundPayload struct {
	TenantID   uint   `json:"tenantId"`
	Direction  string `json:"direction"`
	From       string `json:"from"`
	Msg        string `json:"msg"`
	Timestamp  int64  `json:"timestamp"`
	IsGroup    bool   `json:"isGroup"`
	IsPersonal bool   `json:"isPersonal"`
	IsTagGroup bool   `json:"isTagGroup"`
}

type echoPayload struct {
	Direction string `json:"direction"`
	To        string `json:"to"`
	Body      string `json:"body"`
	Timestamp int64  `json:"timestamp"`
	IsGroup   bool   `json:"isGroup"`
}

// Dispatch delivers an inbound message to all matching webhooks. An endpoint
// answering with an `output` string drives an automatic reply to the original
// sender.
func (f *Fanout) Dispatch(ctx context.Context, s *Session, msg Classified) {
	webhooks, err := f.repo.ListWebhooks(ctx, s.TenantID)
	if err != nil {
		zap.S().Errorf("fan-out %d: webhook listing failed: %v", s.TenantID, err)
		return
	}

	payload := inboundPayload{
		TenantID:   s.TenantID,
		Direction:  constant.DIRECTION_IN,
		From:       msg.From,
		Msg:        msg.Body,
		Timestamp:  msg.Timestamp.Unix(),
		IsGroup:    msg.IsGroup,
		IsPersonal: msg.IsPersonal,
		IsTagGroup: msg.IsTagGroup,
	}

	for _, hook := range webhooks {
		if !matches(hook, msg) {
			continue
		}
		reply, err := f.deliver(ctx, hook, payload)
		if err != nil {
			zap.S().Errorf("fan-out %d: webhook %d (%s) failed: %v", s.TenantID, hook.ID, hook.URL, err)
			continue
		}
		if strings.TrimSpace(reply) == "" {
			continue
		}
		f.injectReply(ctx, s, msg.From, reply)
	}
}

// DispatchEcho posts self-originated outbound events. No reply injection on
// this path.
func (f *Fanout) DispatchEcho(ctx context.Context, s *Session, evt SelfMessageEvent) {
	webhooks, err := f.repo.ListWebhooks(ctx, s.TenantID)
	if err != nil {
		zap.S().Errorf("fan-out %d: webhook listing failed: %v", s.TenantID, err)
		return
	}

	payload := echoPayload{
		Direction: constant.DIRECTION_OUT,
		To:        evt.To,
		Body:      evt.Body,
		Timestamp: evt.Timestamp.Unix(),
		IsGroup:   evt.IsGroup,
	}

	for _, hook := range webhooks {
		if !echoMatches(hook, evt) {
			continue
		}
		if _, err := f.deliver(ctx, hook, payload); err != nil {
			zap.S().Errorf("fan-out %d: echo webhook %d (%s) failed: %v", s.TenantID, hook.ID, hook.URL, err)
		}
	}
}

func matches(hook entities.Webhook, msg Classified) bool {
	return (msg.IsPersonal && hook.OnPersonal) ||
		(msg.IsGroup && hook.OnGroup) ||
		(msg.IsTagGroup && hook.OnTag)
}

func echoMatches(hook entities.Webhook, evt SelfMessageEvent) bool {
	if evt.IsGroup {
		return hook.OnGroup || hook.OnTag
	}
	return hook.OnPersonal
}

// deliver posts the payload to one webhook and returns the reply text the
// endpoint asked for, if any. A URL that stays malformed after normalization
// is a configuration error: logged, delivery skipped.
func (f *Fanout) deliver(ctx context.Context, hook entities.Webhook, payload interface{}) (string, error) {
	target, err := utils.NormalizeWebhookURL(hook.URL)
	if err != nil {
		return "", fmt.Errorf("configuration error: %v", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if hook.SignHeader != "" {
		req.Header.Set(hook.SignHeader, hook.Secret)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("endpoint answered %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return extractReply(raw), nil
}

// extractReply prefers the `output` field of a JSON object response; any
// other body is used verbatim.
func extractReply(raw []byte) string {
	var parsed struct {
		Output *string `json:"output"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Output != nil {
		return *parsed.Output
	}
	return string(raw)
}

func (f *Fanout) injectReply(ctx context.Context, s *Session, to, reply string) {
	if err := s.Send(ctx, to, reply, nil); err != nil {
		zap.S().Errorf("fan-out %d: reply to %s failed: %v", s.TenantID, to, err)
		return
	}
	err := f.repo.CreateMessage(ctx, &entities.Message{
		TenantID:  s.TenantID,
		Address:   to,
		Body:      reply,
		Direction: constant.DIRECTION_OUT,
		Status:    constant.MESSAGE_SENT,
	})
	if err != nil {
		zap.S().Errorf("fan-out %d: reply persist failed: %v", s.TenantID, err)
	}
}
