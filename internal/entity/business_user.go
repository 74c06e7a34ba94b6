package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Plan string

const (
	PlanFree   Plan = "free"
	PlanPro    Plan = "pro"
	PlanAgency Plan = "agency"
)

func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanPro, PlanAgency:
		return true
	}
	return false
}

// Dono dos funis. Vem do login Google, guardado no Postgres.
type BusinessUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	GoogleID  string    `json:"google_id,omitempty"`
	Plan      Plan      `json:"plan"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewBusinessUser(name, email, googleID string) (*BusinessUser, error) {
	now := time.Now()
	u := &BusinessUser{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		GoogleID:  googleID,
		Plan:      PlanFree,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *BusinessUser) Validate() error {
	if u.Name == "" {
		return errors.New("name is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if !u.Plan.IsValid() {
		return errors.New("plan must be free, pro or agency")
	}
	return nil
}

type BusinessUserRepositoryInterface interface {
	Create(ctx context.Context, u *BusinessUser) error
	FindByID(ctx context.Context, id string) (*BusinessUser, error)
	FindByEmail(ctx context.Context, email string) (*BusinessUser, error)
}
