package usecase

import "github.com/xavierca1/funnel-leads/internal/entity"

type SubmitLeadInput struct {
	FunnelID         string              `json:"funnel_id"`
	Name             string              `json:"name"`
	Phone            string              `json:"phone"`
	Email            string              `json:"email"`
	Address          string              `json:"address"`
	PreferredContact string              `json:"preferred_contact"`
	Answers          []entity.LeadAnswer `json:"answers"`
	UTM              entity.UTM          `json:"utm"`
}

// FunnelInput é usado tanto no create quanto no update; campos nil não são alterados.
type FunnelInput struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Branding    *entity.Branding    `json:"branding"`
	Contact     *entity.Contact     `json:"contact"`
	Questions   []entity.Question   `json:"questions"`
	CaptureStep *entity.CaptureStep `json:"capture_step"`
	Status      *string             `json:"status"`
}

type BrandingImageOutput struct {
	URL    string         `json:"url"`
	Funnel *entity.Funnel `json:"funnel"`
}

type UploadImageOutput struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}
