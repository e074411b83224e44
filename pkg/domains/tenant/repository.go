package tenant

import (
	"context"

	"github.com/wagateway/pkg/entities"
	"github.com/wagateway/pkg/utils"
	"gorm.io/gorm"
)

type Repository interface {
	CreateTenant(ctx context.Context, tenant *entities.Tenant) error
	FindTenant(ctx context.Context, id uint) (entities.Tenant, error)
	ListTenants(ctx context.Context) ([]entities.Tenant, error)
	UpdateTenant(ctx context.Context, tenant entities.Tenant) error
	DeleteTenant(ctx context.Context, id uint) error

	CreateWebhook(ctx context.Context, webhook *entities.Webhook) error
	FindWebhook(ctx context.Context, tenantID, id uint) (entities.Webhook, error)
	ListWebhooks(ctx context.Context, tenantID uint) ([]entities.Webhook, error)
	UpdateWebhook(ctx context.Context, webhook entities.Webhook) error
	DeleteWebhook(ctx context.Context, tenantID, id uint) error

	ListContacts(ctx context.Context, tenantID uint) ([]entities.Contact, error)

	ListMessages(ctx context.Context, tenantID uint, page int) ([]entities.Message, int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) CreateTenant(ctx context.Context, tenant *entities.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *repository) FindTenant(ctx context.Context, id uint) (entities.Tenant, error) {
	var tenant entities.Tenant
	err := r.db.WithContext(ctx).First(&tenant, id).Error
	return tenant, err
}

func (r *repository) ListTenants(ctx context.Context) ([]entities.Tenant, error) {
	var tenants []entities.Tenant
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&tenants).Error
	return tenants, err
}

func (r *repository) UpdateTenant(ctx context.Context, tenant entities.Tenant) error {
	return r.db.WithContext(ctx).Save(&tenant).Error
}

func (r *repository) DeleteTenant(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entities.Tenant{}, id).Error
}

func (r *repository) CreateWebhook(ctx context.Context, webhook *entities.Webhook) error {
	return r.db.WithContext(ctx).Create(webhook).Error
}

// FindWebhook is scoped by tenant id; a webhook belonging to another tenant
// is indistinguishable from a missing one.
func (r *repository) FindWebhook(ctx context.Context, tenantID, id uint) (entities.Webhook, error) {
	var webhook entities.Webhook
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&webhook, id).Error
	return webhook, err
}

func (r *repository) ListWebhooks(ctx context.Context, tenantID uint) ([]entities.Webhook, error) {
	var webhooks []entities.Webhook
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&webhooks).Error
	return webhooks, err
}

func (r *repository) UpdateWebhook(ctx context.Context, webhook entities.Webhook) error {
	return r.db.WithContext(ctx).Save(&webhook).Error
}

func (r *repository) DeleteWebhook(ctx context.Context, tenantID, id uint) error {
	return r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Delete(&entities.Webhook{}, id).Error
}

func (r *repository) ListContacts(ctx context.Context, tenantID uint) ([]entities.Contact, error) {
	var contacts []entities.Contact
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&contacts).Error
	return contacts, err
}

func (r *repository) ListMessages(ctx context.Context, tenantID uint, page int) ([]entities.Message, int, error) {
	var messages []entities.Message
	totalPages, err := utils.Pagination(&messages, page, r.db, ctx, "tenant_id = ?", tenantID)
	if err != nil {
		return nil, 0, err
	}
	return messages, totalPages, nil
}
