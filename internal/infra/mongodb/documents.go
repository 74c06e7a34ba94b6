package mongodb

import (
	"time"

	"github.com/xavierca1/funnel-leads/internal/entity"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type answerDocument struct {
	QuestionID   string `bson:"question_id,omitempty"`
	QuestionText string `bson:"question_text"`
	Answer       any    `bson:"answer"`
}

type utmDocument struct {
	Source   string `bson:"source,omitempty"`
	Medium   string `bson:"medium,omitempty"`
	Campaign string `bson:"campaign,omitempty"`
	Content  string `bson:"content,omitempty"`
}

type leadDocument struct {
	ID               bson.ObjectID    `bson:"_id,omitempty"`
	BusinessUserID   string           `bson:"business_user_id"`
	FunnelID         bson.ObjectID    `bson:"funnel_id"`
	Name             string           `bson:"name,omitempty"`
	Phone            string           `bson:"phone"`
	Email            string           `bson:"email,omitempty"`
	Address          string           `bson:"address,omitempty"`
	PreferredContact string           `bson:"preferred_contact"`
	Answers          []answerDocument `bson:"answers"`
	UTM              utmDocument      `bson:"utm"`
	Status           string           `bson:"status"`
	DeletedAt        *time.Time       `bson:"deleted_at"`
	CreatedAt        time.Time        `bson:"createdAt"`
	UpdatedAt        time.Time        `bson:"updatedAt"`
}

// leadView é o formato devolvido pela agregação com $lookup no funil.
type leadView struct {
	Lead        leadDocument `bson:",inline"`
	FunnelTitle string       `bson:"funnel_title,omitempty"`
	FunnelSlug  string       `bson:"funnel_slug,omitempty"`
}

func newLeadDocument(l *entity.Lead) (*leadDocument, error) {
	funnelID, err := bson.ObjectIDFromHex(l.FunnelID)
	if err != nil {
		return nil, entity.ErrInvalidID
	}

	answers := make([]answerDocument, 0, len(l.Answers))
	for _, a := range l.Answers {
		answers = append(answers, answerDocument{QuestionID: a.QuestionID, QuestionText: a.QuestionText, Answer: a.Answer})
	}

	return &leadDocument{
		BusinessUserID:   l.BusinessUserID,
		FunnelID:         funnelID,
		Name:             l.Name,
		Phone:            l.Phone,
		Email:            l.Email,
		Address:          l.Address,
		PreferredContact: string(l.PreferredContact),
		Answers:          answers,
		UTM: utmDocument{
			Source:   l.UTM.Source,
			Medium:   l.UTM.Medium,
			Campaign: l.UTM.Campaign,
			Content:  l.UTM.Content,
		},
		Status:    string(l.Status),
		DeletedAt: l.DeletedAt,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}, nil
}

func (d *leadDocument) toEntity() *entity.Lead {
	answers := make([]entity.LeadAnswer, 0, len(d.Answers))
	for _, a := range d.Answers {
		answers = append(answers, entity.LeadAnswer{
			QuestionID:   a.QuestionID,
			QuestionText: a.QuestionText,
			Answer:       plainAnswer(a.Answer),
		})
	}

	var deletedAt *time.Time
	if d.DeletedAt != nil {
		t := d.DeletedAt.UTC()
		deletedAt = &t
	}

	return &entity.Lead{
		ID:               d.ID.Hex(),
		BusinessUserID:   d.BusinessUserID,
		FunnelID:         d.FunnelID.Hex(),
		Name:             d.Name,
		Phone:            d.Phone,
		Email:            d.Email,
		Address:          d.Address,
		PreferredContact: entity.PreferredContact(d.PreferredContact),
		Answers:          answers,
		UTM: entity.UTM{
			Source:   d.UTM.Source,
			Medium:   d.UTM.Medium,
			Campaign: d.UTM.Campaign,
			Content:  d.UTM.Content,
		},
		Status:    entity.LeadStatus(d.Status),
		DeletedAt: deletedAt,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func (v *leadView) toEntity() *entity.Lead {
	l := v.Lead.toEntity()
	l.FunnelTitle = v.FunnelTitle
	l.FunnelSlug = v.FunnelSlug
	return l
}

// plainAnswer troca os tipos do driver (bson.A, bson.D) por slices e mapas comuns,
// que é o que o JSON e o export esperam.
func plainAnswer(v any) any {
	switch x := v.(type) {
	case bson.A:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = plainAnswer(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = plainAnswer(e.Value)
		}
		return out
	default:
		return v
	}
}

type optionDocument struct {
	Label string `bson:"label"`
	Value string `bson:"value"`
}

type questionDocument struct {
	ID           bson.ObjectID    `bson:"_id,omitempty"`
	StepNumber   int              `bson:"step_number"`
	QuestionText string           `bson:"question_text"`
	Type         string           `bson:"type"`
	Options      []optionDocument `bson:"options"`
	IsRequired   bool             `bson:"is_required"`
}

type brandingDocument struct {
	LogoURL                 string `bson:"logo_url,omitempty"`
	LogoPublicID            string `bson:"logo_public_id,omitempty"`
	BackgroundImageURL      string `bson:"background_image_url,omitempty"`
	BackgroundImagePublicID string `bson:"background_image_public_id,omitempty"`
	PrimaryColor            string `bson:"primary_color,omitempty"`
	SecondaryColor          string `bson:"secondary_color,omitempty"`
	FontFamily              string `bson:"font_family,omitempty"`
}

type contactDocument struct {
	PhoneNumber    string `bson:"phone_number,omitempty"`
	WhatsAppNumber string `bson:"whatsapp_number,omitempty"`
}

type captureStepDocument struct {
	AskName        bool `bson:"ask_name"`
	AskPhone       bool `bson:"ask_phone"`
	AskEmail       bool `bson:"ask_email"`
	AskAddress     bool `bson:"ask_address"`
	PhoneOTPVerify bool `bson:"phone_otp_verify"`
}

type metricsDocument struct {
	TotalVisits int64 `bson:"total_visits"`
	TotalLeads  int64 `bson:"total_leads"`
}

type funnelDocument struct {
	ID             bson.ObjectID       `bson:"_id,omitempty"`
	BusinessUserID string              `bson:"business_user_id"`
	Title          string              `bson:"title"`
	Slug           string              `bson:"slug"`
	Description    string              `bson:"description,omitempty"`
	Branding       brandingDocument    `bson:"branding"`
	Contact        contactDocument     `bson:"contact"`
	Questions      []questionDocument  `bson:"questions"`
	CaptureStep    captureStepDocument `bson:"capture_step"`
	Metrics        metricsDocument     `bson:"metrics"`
	Status         string              `bson:"status"`
	CreatedAt      time.Time           `bson:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt"`
}

func newFunnelDocument(f *entity.Funnel) *funnelDocument {
	return &funnelDocument{
		BusinessUserID: f.BusinessUserID,
		Title:          f.Title,
		Slug:           f.Slug,
		Description:    f.Description,
		Branding:       brandingToDocument(f.Branding),
		Contact:        contactDocument{PhoneNumber: f.Contact.PhoneNumber, WhatsAppNumber: f.Contact.WhatsAppNumber},
		Questions:      questionsToDocument(f.Questions),
		CaptureStep:    captureStepDocument(f.CaptureStep),
		Metrics:        metricsDocument{TotalVisits: f.Metrics.TotalVisits, TotalLeads: f.Metrics.TotalLeads},
		Status:         string(f.Status),
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

func brandingToDocument(b entity.Branding) brandingDocument {
	return brandingDocument(b)
}

func questionsToDocument(qs []entity.Question) []questionDocument {
	out := make([]questionDocument, 0, len(qs))
	for _, q := range qs {
		doc := questionDocument{
			StepNumber:   q.StepNumber,
			QuestionText: q.QuestionText,
			Type:         string(q.Type),
			Options:      make([]optionDocument, 0, len(q.Options)),
			IsRequired:   q.IsRequired == nil || *q.IsRequired,
		}
		if oid, err := bson.ObjectIDFromHex(q.ID); err == nil {
			doc.ID = oid
		} else {
			doc.ID = bson.NewObjectID()
		}
		for _, o := range q.Options {
			doc.Options = append(doc.Options, optionDocument(o))
		}
		out = append(out, doc)
	}
	return out
}

func (d *funnelDocument) toEntity() *entity.Funnel {
	questions := make([]entity.Question, 0, len(d.Questions))
	for _, q := range d.Questions {
		required := q.IsRequired
		options := make([]entity.Option, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, entity.Option(o))
		}
		questions = append(questions, entity.Question{
			ID:           q.ID.Hex(),
			StepNumber:   q.StepNumber,
			QuestionText: q.QuestionText,
			Type:         entity.QuestionType(q.Type),
			Options:      options,
			IsRequired:   &required,
		})
	}

	return &entity.Funnel{
		ID:             d.ID.Hex(),
		BusinessUserID: d.BusinessUserID,
		Title:          d.Title,
		Slug:           d.Slug,
		Description:    d.Description,
		Branding:       entity.Branding(d.Branding),
		Contact:        entity.Contact{PhoneNumber: d.Contact.PhoneNumber, WhatsAppNumber: d.Contact.WhatsAppNumber},
		Questions:      questions,
		CaptureStep:    entity.CaptureStep(d.CaptureStep),
		Metrics:        entity.Metrics{TotalVisits: d.Metrics.TotalVisits, TotalLeads: d.Metrics.TotalLeads},
		Status:         entity.FunnelStatus(d.Status),
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}
