package gateway

import (
	"context"
	"time"

	"github.com/wagateway/pkg/constant"
	"github.com/wagateway/pkg/entities"
	"gorm.io/gorm"
)

// Repository is the persistence boundary of the dispatch engine. Every access
// is scoped by tenant id; no multi-row transactions are required.
type Repository interface {
	FindTenant(ctx context.Context, id uint) (entities.Tenant, error)
	ListTenants(ctx context.Context) ([]entities.Tenant, error)
	UpdateTenantStatus(ctx context.Context, id uint, status string) error
	UpdateTenantIdentity(ctx context.Context, id uint, info SelfInfo) error

	UpsertContact(ctx context.Context, contact entities.Contact) error
	ListContacts(ctx context.Context, tenantID uint) ([]entities.Contact, error)

	ListWebhooks(ctx context.Context, tenantID uint) ([]entities.Webhook, error)

	CreateMessage(ctx context.Context, msg *entities.Message) error
	DueScheduled(ctx context.Context, now time.Time) ([]entities.Message, error)
	UpdateMessageStatus(ctx context.Context, id uint, status string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) FindTenant(ctx context.Context, id uint) (entities.Tenant, error) {
	var tenant entities.Tenant
	err := r.db.WithContext(ctx).First(&tenant, id).Error
	return tenant, err
}

func (r *repository) ListTenants(ctx context.Context) ([]entities.Tenant, error) {
	var tenants []entities.Tenant
	err := r.db.WithContext(ctx).Find(&tenants).Error
	return tenants, err
}

func (r *repository) UpdateTenantStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&entities.Tenant{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) UpdateTenantIdentity(ctx context.Context, id uint, info SelfInfo) error {
	return r.db.WithContext(ctx).Model(&entities.Tenant{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"network_id":   info.NetworkID,
			"display_name": info.DisplayName,
			"phone_number": info.PhoneNumber,
			"avatar_url":   info.AvatarURL,
		}).Error
}

func (r *repository) UpsertContact(ctx context.Context, contact entities.Contact) error {
	var existing entities.Contact
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND address = ?", contact.TenantID, contact.Address).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(&contact).Error
	}
	if err != nil {
		return err
	}

	existing.Name = contact.Name
	existing.Phone = contact.Phone
	existing.Kind = contact.Kind
	if contact.AvatarURL != "" {
		existing.AvatarURL = contact.AvatarURL
	}
	return r.db.WithContext(ctx).Save(&existing).Error
}

func (r *repository) ListContacts(ctx context.Context, tenantID uint) ([]entities.Contact, error) {
	var contacts []entities.Contact
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&contacts).Error
	return contacts, err
}

func (r *repository) ListWebhooks(ctx context.Context, tenantID uint) ([]entities.Webhook, error) {
	var webhooks []entities.Webhook
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&webhooks).Error
	return webhooks, err
}

func (r *repository) CreateMessage(ctx context.Context, msg *entities.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *repository) DueScheduled(ctx context.Context, now time.Time) ([]entities.Message, error) {
	var due []entities.Message
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", constant.MESSAGE_SCHEDULED, now).
		Find(&due).Error
	return due, err
}

func (r *repository) UpdateMessageStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&entities.Message{}).Where("id = ?", id).
		Update("status", status).Error
}
