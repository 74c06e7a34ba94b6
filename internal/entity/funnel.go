package entity

import (
	"context"
	"errors"
	"time"
)

type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMulti    QuestionType = "multi"
	QuestionInput    QuestionType = "input"
	QuestionTextarea QuestionType = "textarea"
)

func (q QuestionType) IsValid() bool {
	switch q {
	case QuestionSingle, QuestionMulti, QuestionInput, QuestionTextarea:
		return true
	}
	return false
}

type FunnelStatus string

const (
	FunnelActive FunnelStatus = "active"
	FunnelPaused FunnelStatus = "paused"
)

func (s FunnelStatus) IsValid() bool {
	return s == FunnelActive || s == FunnelPaused
}

// Métricas incrementadas in-place no banco ($inc)
type FunnelMetric string

const (
	MetricTotalVisits FunnelMetric = "total_visits"
	MetricTotalLeads  FunnelMetric = "total_leads"
)

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Question struct {
	ID           string       `json:"_id,omitempty"`
	StepNumber   int          `json:"step_number"`
	QuestionText string       `json:"question_text"`
	Type         QuestionType `json:"type"`
	Options      []Option     `json:"options"`
	IsRequired   *bool        `json:"is_required,omitempty"`
}

func (q Question) Validate() error {
	if q.QuestionText == "" {
		return errors.New("question_text is required")
	}
	if !q.Type.IsValid() {
		return errors.New("type must be one of single, multi, input, textarea")
	}
	return nil
}

type Branding struct {
	LogoURL                 string `json:"logo_url,omitempty"`
	LogoPublicID            string `json:"logo_public_id,omitempty"`
	BackgroundImageURL      string `json:"background_image_url,omitempty"`
	BackgroundImagePublicID string `json:"background_image_public_id,omitempty"`
	PrimaryColor            string `json:"primary_color,omitempty"`
	SecondaryColor          string `json:"secondary_color,omitempty"`
	FontFamily              string `json:"font_family,omitempty"`
}

type Contact struct {
	PhoneNumber    string `json:"phone_number,omitempty"`
	WhatsAppNumber string `json:"whatsapp_number,omitempty"`
}

type CaptureStep struct {
	AskName        bool `json:"ask_name"`
	AskPhone       bool `json:"ask_phone"`
	AskEmail       bool `json:"ask_email"`
	AskAddress     bool `json:"ask_address"`
	PhoneOTPVerify bool `json:"phone_otp_verify"`
}

func DefaultCaptureStep() CaptureStep {
	return CaptureStep{AskName: true, AskPhone: true}
}

type Metrics struct {
	TotalVisits int64 `json:"total_visits"`
	TotalLeads  int64 `json:"total_leads"`
}

type Funnel struct {
	ID             string       `json:"_id"`
	BusinessUserID string       `json:"business_user_id,omitempty"`
	Title          string       `json:"title"`
	Slug           string       `json:"slug"`
	Description    string       `json:"description,omitempty"`
	Branding       Branding     `json:"branding"`
	Contact        Contact      `json:"contact"`
	Questions      []Question   `json:"questions"`
	CaptureStep    CaptureStep  `json:"capture_step"`
	Metrics        Metrics      `json:"metrics"`
	Status         FunnelStatus `json:"status"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// FunnelPatch carrega só os campos enviados num update; nil significa "não mexer".
type FunnelPatch struct {
	Title       *string
	Slug        *string
	Description *string
	Branding    *Branding
	Contact     *Contact
	Questions   []Question
	CaptureStep *CaptureStep
	Status      *FunnelStatus
}

func (p FunnelPatch) IsEmpty() bool {
	return p.Title == nil && p.Slug == nil && p.Description == nil && p.Branding == nil &&
		p.Contact == nil && p.Questions == nil && p.CaptureStep == nil && p.Status == nil
}

// BrandingImageField identifica qual imagem do branding está sendo trocada.
type BrandingImageField string

const (
	BrandingLogo       BrandingImageField = "logo"
	BrandingBackground BrandingImageField = "background"
)

func (f BrandingImageField) IsValid() bool {
	return f == BrandingLogo || f == BrandingBackground
}

// PublicID devolve o id do asset atual do campo, vazio se for URL externa.
func (b Branding) PublicID(field BrandingImageField) string {
	if field == BrandingLogo {
		return b.LogoPublicID
	}
	return b.BackgroundImagePublicID
}

type FunnelRepositoryInterface interface {
	Create(ctx context.Context, f *Funnel) error
	FindByID(ctx context.Context, id string) (*Funnel, error)
	FindOwned(ctx context.Context, id, ownerID string) (*Funnel, error)
	FindActiveBySlug(ctx context.Context, slug string) (*Funnel, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Funnel, error)
	Update(ctx context.Context, id, ownerID string, patch FunnelPatch) (*Funnel, error)
	SetBrandingImage(ctx context.Context, id, ownerID string, field BrandingImageField, url, publicID string) (*Funnel, error)
	Delete(ctx context.Context, id, ownerID string) error
	IncrementMetric(ctx context.Context, id string, metric FunnelMetric) error
}
