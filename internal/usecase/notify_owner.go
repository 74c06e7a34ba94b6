package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/infra/mail"
	"github.com/xavierca1/funnel-leads/internal/infra/queue"
	"github.com/xavierca1/funnel-leads/internal/log"
)

type EmailService interface {
	SendNewLead(to string, data mail.NewLeadEmailData) error
}

// NotifyOwnerUseCase consome LeadCaptured e manda e-mail pro dono do funil.
type NotifyOwnerUseCase struct {
	Users        entity.BusinessUserRepositoryInterface
	Email        EmailService
	DashboardURL string
}

func NewNotifyOwnerUseCase(users entity.BusinessUserRepositoryInterface, email EmailService, dashboardURL string) *NotifyOwnerUseCase {
	return &NotifyOwnerUseCase{Users: users, Email: email, DashboardURL: dashboardURL}
}

func (uc *NotifyOwnerUseCase) HandleLeadCaptured(ctx context.Context, payload queue.LeadCapturedPayload) error {
	owner, err := uc.Users.FindByID(ctx, payload.BusinessUserID)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			// dono removido: não adianta reprocessar
			log.WithField("business_user_id", payload.BusinessUserID).Warn("⚠️ dono do lead não existe mais, ignorando notificação")
			return nil
		}
		return fmt.Errorf("buscar dono %s: %w", payload.BusinessUserID, err)
	}

	if !owner.IsActive {
		log.WithField("business_user_id", owner.ID).Debug("dono inativo, notificação ignorada")
		return nil
	}

	return uc.Email.SendNewLead(owner.Email, mail.NewLeadEmailData{
		OwnerName:        owner.Name,
		FunnelTitle:      payload.FunnelTitle,
		LeadName:         payload.Name,
		Phone:            payload.Phone,
		Email:            payload.Email,
		PreferredContact: payload.PreferredContact,
		DashboardURL:     uc.DashboardURL,
	})
}
