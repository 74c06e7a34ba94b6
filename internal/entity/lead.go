package entity

import (
	"context"
	"time"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusDeleted   LeadStatus = "deleted"
)

// RestoreGracePeriod é a janela após o soft delete em que o lead ainda pode ser restaurado.
const RestoreGracePeriod = 7 * 24 * time.Hour

// IsSettable indica se o status pode ser aplicado pelo dono via SetStatus.
// "deleted" só é alcançável por soft delete.
func (s LeadStatus) IsSettable() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusConverted:
		return true
	}
	return false
}

type PreferredContact string

const (
	ContactCall     PreferredContact = "call"
	ContactWhatsApp PreferredContact = "whatsapp"
)

func (p PreferredContact) IsValid() bool {
	return p == ContactCall || p == ContactWhatsApp
}

type LeadAnswer struct {
	QuestionID   string `json:"question_id,omitempty"`
	QuestionText string `json:"question_text"`
	Answer       any    `json:"answer"`
}

// UTM guarda a atribuição da campanha que originou o lead.
type UTM struct {
	Source   string `json:"source,omitempty"`
	Medium   string `json:"medium,omitempty"`
	Campaign string `json:"campaign,omitempty"`
	Content  string `json:"content,omitempty"`
}

func (u UTM) IsEmpty() bool {
	return u.Source == "" && u.Medium == "" && u.Campaign == "" && u.Content == ""
}

type Lead struct {
	ID             string `json:"_id"`
	BusinessUserID string `json:"business_user_id"`
	FunnelID       string `json:"funnel_id"`

	Name             string           `json:"name,omitempty"`
	Phone            string           `json:"phone"`
	Email            string           `json:"email,omitempty"`
	Address          string           `json:"address,omitempty"`
	PreferredContact PreferredContact `json:"preferred_contact"`
	Answers          []LeadAnswer     `json:"answers"`
	UTM              UTM              `json:"utm"`

	Status    LeadStatus `json:"status"`
	DeletedAt *time.Time `json:"deleted_at"`

	// Preenchidos na leitura (join com o funil)
	FunnelTitle string `json:"funnel_title,omitempty"`
	FunnelSlug  string `json:"funnel_slug,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewLead monta um lead recém submetido. O dono sempre vem do funil.
func NewLead(funnel *Funnel, name, phone, email, address string, contact PreferredContact, answers []LeadAnswer, utm UTM) (*Lead, error) {
	if funnel == nil || funnel.ID == "" {
		return nil, ErrFunnelNotFound
	}
	if phone == "" {
		return nil, ErrPhoneRequired
	}
	if contact == "" {
		contact = ContactCall
	}
	if answers == nil {
		answers = []LeadAnswer{}
	}

	now := time.Now()
	return &Lead{
		BusinessUserID:   funnel.BusinessUserID,
		FunnelID:         funnel.ID,
		Name:             name,
		Phone:            phone,
		Email:            email,
		Address:          address,
		PreferredContact: contact,
		Answers:          answers,
		UTM:              utm,
		Status:           LeadStatusNew,
		FunnelTitle:      funnel.Title,
		FunnelSlug:       funnel.Slug,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// IsConsistent checa o invariante: status deleted <=> deleted_at preenchido.
func (l *Lead) IsConsistent() bool {
	return (l.Status == LeadStatusDeleted) == (l.DeletedAt != nil)
}

// GraceExpired informa se a janela de restauração já passou em relação a now.
func (l *Lead) GraceExpired(now time.Time) bool {
	if l.DeletedAt == nil {
		return false
	}
	return now.Sub(*l.DeletedAt) > RestoreGracePeriod
}

// LeadCursor é um iterador forward-only sobre leads. Só um registro fica vivo por vez.
type LeadCursor interface {
	Next(ctx context.Context) bool
	Lead() *Lead
	Err() error
	Close(ctx context.Context) error
}

// StateGuard é o estado que o chamador leu antes de escrever. A escrita só
// acontece se o lead ainda estiver nele; senão o repositório devolve ErrLeadNotFound.
type StateGuard int

const (
	GuardActive  StateGuard = iota + 1 // status != deleted
	GuardDeleted                       // status == deleted
)

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	// FindOwned traz o lead do dono em qualquer status, inclusive deleted.
	FindOwned(ctx context.Context, id, ownerID string) (*Lead, error)
	// FindOwnedActive ignora leads com status deleted.
	FindOwnedActive(ctx context.Context, id, ownerID string) (*Lead, error)
	ListActiveByOwner(ctx context.Context, ownerID string) ([]*Lead, error)
	StreamByOwner(ctx context.Context, ownerID string) (LeadCursor, error)
	UpdateState(ctx context.Context, lead *Lead, guard StateGuard) error
	// Purge remove o lead só se ainda estiver deletado com deleted_at anterior a cutoff.
	Purge(ctx context.Context, id, ownerID string, cutoff time.Time) error
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
