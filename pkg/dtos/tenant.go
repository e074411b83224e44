package dtos

// DTO for tenant provisioning
type CreateTenantDTO struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SecretKey   string `json:"secret_key" binding:"required,min=6"`
}

type UpdateTenantDTO struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SecretKey   string `json:"secret_key" binding:"required,min=6"`
}

type TenantResponseDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	NetworkID   string `json:"network_id"`
	DisplayName string `json:"display_name"`
	PhoneNumber string `json:"phone_number"`
	AvatarURL   string `json:"avatar_url"`
}

type UpdateAutoReplyDTO struct {
	ReplyPersonal         bool   `json:"reply_personal"`
	ReplyGroup            bool   `json:"reply_group"`
	ReplyTag              bool   `json:"reply_tag"`
	ReplyTemplatePersonal string `json:"reply_template_personal"`
	ReplyTemplateGroup    string `json:"reply_template_group"`
	ReplyTemplateTag      string `json:"reply_template_tag"`
}

type ContactDTO struct {
	Address   string `json:"address"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url"`
	Kind      string `json:"kind"`
}
