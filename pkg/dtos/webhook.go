package dtos

// OnPersonal is a pointer so an omitted flag can default to true while an
// explicit false is honored.
type CreateWebhookDTO struct {
	Name       string `json:"name"`
	URL        string `json:"url" binding:"required"`
	SignHeader string `json:"sign_header"`
	Secret     string `json:"secret"`
	OnPersonal *bool  `json:"on_personal"`
	OnGroup    bool   `json:"on_group"`
	OnTag      bool   `json:"on_tag"`
}

type UpdateWebhookDTO struct {
	Name       string `json:"name"`
	URL        string `json:"url" binding:"required"`
	SignHeader string `json:"sign_header"`
	Secret     string `json:"secret"`
	OnPersonal bool   `json:"on_personal"`
	OnGroup    bool   `json:"on_group"`
	OnTag      bool   `json:"on_tag"`
}

type WebhookResponseDTO struct {
	ID         uint   `json:"id"`
	TenantID   uint   `json:"tenant_id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	SignHeader string `json:"sign_header"`
	OnPersonal bool   `json:"on_personal"`
	OnGroup    bool   `json:"on_group"`
	OnTag      bool   `json:"on_tag"`
}
