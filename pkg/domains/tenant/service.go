package tenant

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wagateway/pkg/config"
	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/dtos"
	"github.com/wagateway/pkg/entities"
	"github.com/wagateway/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionManager is the slice of the gateway manager the tenant service
// drives: provisioning starts a session, removal stops it for good.
type SessionManager interface {
	StartSession(ctx context.Context, tenantID uint) error
	StopSession(tenantID uint)
	RestartSession(ctx context.Context, tenantID uint) error
}

type Service interface {
	Create(ctx context.Context, req dtos.CreateTenantDTO) (entities.Tenant, error)
	Get(ctx context.Context, id uint) (entities.Tenant, error)
	List(ctx context.Context) ([]entities.Tenant, error)
	Update(ctx context.Context, id uint, req dtos.UpdateTenantDTO) (entities.Tenant, error)
	Delete(ctx context.Context, id uint) error
	VerifySecret(ctx context.Context, id uint, secret string) error

	UpdateAutoReply(ctx context.Context, id uint, req dtos.UpdateAutoReplyDTO) (entities.Tenant, error)

	CreateWebhook(ctx context.Context, tenantID uint, req dtos.CreateWebhookDTO) (entities.Webhook, error)
	ListWebhooks(ctx context.Context, tenantID uint) ([]entities.Webhook, error)
	UpdateWebhook(ctx context.Context, tenantID, webhookID uint, req dtos.UpdateWebhookDTO) (entities.Webhook, error)
	DeleteWebhook(ctx context.Context, tenantID, webhookID uint) error

	ListContacts(ctx context.Context, tenantID uint) ([]entities.Contact, error)
	ListMessages(ctx context.Context, tenantID uint, page int) ([]entities.Message, int, error)
}

type service struct {
	repository Repository
	sessions   SessionManager
	cfg        config.Gateway
}

func NewService(r Repository, sessions SessionManager, cfg config.Gateway) Service {
	return &service{
		repository: r,
		sessions:   sessions,
		cfg:        cfg,
	}
}

func (s *service) Create(ctx context.Context, req dtos.CreateTenantDTO) (entities.Tenant, error) {
	secretHash, err := bcrypt.GenerateFromPassword([]byte(req.SecretKey), bcrypt.DefaultCost)
	if err != nil {
		return entities.Tenant{}, err
	}

	folderName := utils.GenerateFolderName()
	sessionPath := filepath.Join(s.cfg.SessionsRoot(), folderName)
	if err := os.MkdirAll(sessionPath, 0o755); err != nil {
		return entities.Tenant{}, fmt.Errorf("failed to create session directory: %v", err)
	}

	tenant := entities.Tenant{
		Name:          req.Name,
		Description:   req.Description,
		SecretKey:     string(secretHash),
		SessionFolder: folderName,
		Status:        constant.STATUS_DISCONNECTED,
	}
	if err := s.repository.CreateTenant(ctx, &tenant); err != nil {
		os.RemoveAll(sessionPath)
		return entities.Tenant{}, err
	}

	if err := s.sessions.StartSession(ctx, tenant.ID); err != nil {
		zap.S().Errorf("tenant %d: session start after provisioning failed: %v", tenant.ID, err)
	}

	return tenant, nil
}

func (s *service) Get(ctx context.Context, id uint) (entities.Tenant, error) {
	return s.repository.FindTenant(ctx, id)
}

func (s *service) List(ctx context.Context) ([]entities.Tenant, error) {
	return s.repository.ListTenants(ctx)
}

func (s *service) Update(ctx context.Context, id uint, req dtos.UpdateTenantDTO) (entities.Tenant, error) {
	tenant, err := s.repository.FindTenant(ctx, id)
	if err != nil {
		return entities.Tenant{}, err
	}

	secretHash, err := bcrypt.GenerateFromPassword([]byte(req.SecretKey), bcrypt.DefaultCost)
	if err != nil {
		return entities.Tenant{}, err
	}

	tenant.Name = req.Name
	tenant.Description = req.Description
	tenant.SecretKey = string(secretHash)
	if err := s.repository.UpdateTenant(ctx, tenant); err != nil {
		return entities.Tenant{}, err
	}

	if err := s.sessions.RestartSession(ctx, tenant.ID); err != nil {
		zap.S().Errorf("tenant %d: session restart after update failed: %v", tenant.ID, err)
	}

	return tenant, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	tenant, err := s.repository.FindTenant(ctx, id)
	if err != nil {
		return err
	}

	s.sessions.StopSession(id)

	if err := s.repository.DeleteTenant(ctx, id); err != nil {
		return err
	}

	sessionPath := filepath.Join(s.cfg.SessionsRoot(), tenant.SessionFolder)
	if err := os.RemoveAll(sessionPath); err != nil {
		zap.S().Warnf("tenant %d: session directory cleanup failed: %v", id, err)
	}
	return nil
}

func (s *service) VerifySecret(ctx context.Context, id uint, secret string) error {
	tenant, err := s.repository.FindTenant(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf(constant.CANT_FIND, "Tenant")
		}
		return fmt.Errorf(constant.SOMETHING_WENT_WRONG)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(tenant.SecretKey), []byte(secret)); err != nil {
		return fmt.Errorf(constant.UNAUTHORIZED_ACCESS)
	}
	return nil
}

// UpdateAutoReply stores the three toggles; a disabled toggle nulls its
// template so stale text is never picked up after re-enabling.
func (s *service) UpdateAutoReply(ctx context.Context, id uint, req dtos.UpdateAutoReplyDTO) (entities.Tenant, error) {
	tenant, err := s.repository.FindTenant(ctx, id)
	if err != nil {
		return entities.Tenant{}, err
	}

	tenant.ReplyPersonal = req.ReplyPersonal
	tenant.ReplyGroup = req.ReplyGroup
	tenant.ReplyTag = req.ReplyTag
	tenant.ReplyTemplatePersonal = templateColumn(req.ReplyPersonal, req.ReplyTemplatePersonal)
	tenant.ReplyTemplateGroup = templateColumn(req.ReplyGroup, req.ReplyTemplateGroup)
	tenant.ReplyTemplateTag = templateColumn(req.ReplyTag, req.ReplyTemplateTag)

	if err := s.repository.UpdateTenant(ctx, tenant); err != nil {
		return entities.Tenant{}, err
	}
	return tenant, nil
}

func (s *service) CreateWebhook(ctx context.Context, tenantID uint, req dtos.CreateWebhookDTO) (entities.Webhook, error) {
	if _, err := s.repository.FindTenant(ctx, tenantID); err != nil {
		return entities.Webhook{}, err
	}

	// Reject URLs that stay malformed after normalization up front; the
	// fan-out would only ever log them.
	if _, err := utils.NormalizeWebhookURL(req.URL); err != nil {
		return entities.Webhook{}, err
	}

	onPersonal := true
	if req.OnPersonal != nil {
		onPersonal = *req.OnPersonal
	}

	webhook := entities.Webhook{
		TenantID:   tenantID,
		Name:       req.Name,
		URL:        req.URL,
		SignHeader: req.SignHeader,
		Secret:     req.Secret,
		OnPersonal: onPersonal,
		OnGroup:    req.OnGroup,
		OnTag:      req.OnTag,
	}
	if err := s.repository.CreateWebhook(ctx, &webhook); err != nil {
		return entities.Webhook{}, err
	}
	return webhook, nil
}

func (s *service) ListWebhooks(ctx context.Context, tenantID uint) ([]entities.Webhook, error) {
	return s.repository.ListWebhooks(ctx, tenantID)
}

func (s *service) UpdateWebhook(ctx context.Context, tenantID, webhookID uint, req dtos.UpdateWebhookDTO) (entities.Webhook, error) {
	webhook, err := s.repository.FindWebhook(ctx, tenantID, webhookID)
	if err != nil {
		return entities.Webhook{}, err
	}

	if _, err := utils.NormalizeWebhookURL(req.URL); err != nil {
		return entities.Webhook{}, err
	}

	webhook.Name = req.Name
	webhook.URL = req.URL
	webhook.SignHeader = req.SignHeader
	if req.Secret != "" {
		webhook.Secret = req.Secret
	}
	webhook.OnPersonal = req.OnPersonal
	webhook.OnGroup = req.OnGroup
	webhook.OnTag = req.OnTag

	if err := s.repository.UpdateWebhook(ctx, webhook); err != nil {
		return entities.Webhook{}, err
	}
	return webhook, nil
}

func (s *service) DeleteWebhook(ctx context.Context, tenantID, webhookID uint) error {
	if _, err := s.repository.FindWebhook(ctx, tenantID, webhookID); err != nil {
		return err
	}
	return s.repository.DeleteWebhook(ctx, tenantID, webhookID)
}

func (s *service) ListContacts(ctx context.Context, tenantID uint) ([]entities.Contact, error) {
	return s.repository.ListContacts(ctx, tenantID)
}

func (s *service) ListMessages(ctx context.Context, tenantID uint, page int) ([]entities.Message, int, error) {
	return s.repository.ListMessages(ctx, tenantID, page)
}

func templateColumn(enabled bool, template string) *string {
	if !enabled || template == "" {
		return nil
	}
	return &template
}
