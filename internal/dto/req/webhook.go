package req

type CreateWebhookRequest struct {
	Name      string `json:"name" binding:"required"`
	URL       string `json:"url" binding:"required"`
	IsDefault bool   `json:"isDefault"`
}

type UpdateWebhookRequest struct {
	Name      *string `json:"name"`
	URL       *string `json:"url"`
	IsDefault *bool   `json:"isDefault"`
}
