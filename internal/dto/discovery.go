package dto

import "vinivici/internal/models"

// ToggleBanRequest is accepted as JSON by the API and as a form by the page.
type ToggleBanRequest struct {
	Type  string `json:"type" form:"type" validate:"required,is-attribute-type"`
	Value string `json:"value" form:"value" validate:"required,max=200"`
}

// Rule converts the request into a ban rule
func (r ToggleBanRequest) Rule() models.BanRule {
	return models.BanRule{Type: models.AttributeType(r.Type), Value: r.Value}
}

// BanListResponse - ban list in display order
type BanListResponse struct {
	Bans  []models.BanRule `json:"bans"`
	Count int              `json:"count"`
}

func NewBanListResponse(bans []models.BanRule) BanListResponse {
	if bans == nil {
		bans = []models.BanRule{}
	}
	return BanListResponse{Bans: bans, Count: len(bans)}
}

// HealthResponse - liveness body
type HealthResponse struct {
	Status string `json:"status"`
	Phase  string `json:"phase"`
}
