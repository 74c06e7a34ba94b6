package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/log"
)

const (
	msgLeadNotFound     = "Lead not found"
	msgInvalidStatus    = "Invalid status value"
	msgLeadNotDeleted   = "Lead is not deleted"
	msgLeadPurgedExpiry = "Lead permanently deleted after 7 days"
)

// LeadLifecycleUseCase controla as transições de status do lead:
// new/contacted/converted entre si, soft delete e restore dentro da janela de 7 dias.
// Concorrência: cada escrita só passa se o lead ainda estiver no estado lido
// (ativo ou deletado). Entre estados ativos vale last-write-wins.
type LeadLifecycleUseCase struct {
	Repo    entity.LeadRepositoryInterface
	Metrics DomainMetrics
	Now     func() time.Time
}

func NewLeadLifecycleUseCase(repo entity.LeadRepositoryInterface, metrics DomainMetrics) *LeadLifecycleUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &LeadLifecycleUseCase{
		Repo:    repo,
		Metrics: metrics,
		Now:     time.Now,
	}
}

// SetStatus troca o status entre new, contacted e converted.
// Lead deletado não é encontrado aqui: tem que passar pelo restore antes.
func (uc *LeadLifecycleUseCase) SetStatus(ctx context.Context, leadID, ownerID string, status entity.LeadStatus) (*entity.Lead, error) {
	if !status.IsSettable() {
		return nil, InvalidArgument("INVALID_STATUS", msgInvalidStatus)
	}

	lead, err := uc.findActive(ctx, leadID, ownerID)
	if err != nil {
		return nil, err
	}

	lead.Status = status
	lead.UpdatedAt = uc.Now()
	if err := uc.Repo.UpdateState(ctx, lead, entity.GuardActive); err != nil {
		return nil, uc.mapRepoError(err, "LEAD_UPDATE_FAILED")
	}
	return lead, nil
}

func (uc *LeadLifecycleUseCase) SoftDelete(ctx context.Context, leadID, ownerID string) (*entity.Lead, error) {
	lead, err := uc.findActive(ctx, leadID, ownerID)
	if err != nil {
		return nil, err
	}

	now := uc.Now()
	lead.Status = entity.LeadStatusDeleted
	lead.DeletedAt = &now
	lead.UpdatedAt = now
	if err := uc.Repo.UpdateState(ctx, lead, entity.GuardActive); err != nil {
		return nil, uc.mapRepoError(err, "LEAD_DELETE_FAILED")
	}
	return lead, nil
}

// Restore volta o lead para new se ainda estiver dentro da janela.
// Passou de 7 dias: remove de vez e devolve Gone.
func (uc *LeadLifecycleUseCase) Restore(ctx context.Context, leadID, ownerID string) (*entity.Lead, error) {
	if !isValidObjectID(leadID) {
		return nil, NotFound("LEAD_NOT_FOUND", msgLeadNotFound)
	}

	lead, err := uc.Repo.FindOwned(ctx, leadID, ownerID)
	if err != nil {
		return nil, uc.mapRepoError(err, "LEAD_LOOKUP_FAILED")
	}

	if lead.Status != entity.LeadStatusDeleted || lead.DeletedAt == nil {
		return nil, InvalidState("LEAD_NOT_DELETED", msgLeadNotDeleted)
	}

	now := uc.Now()
	if lead.GraceExpired(now) {
		err := uc.Repo.Purge(ctx, leadID, ownerID, now.Add(-entity.RestoreGracePeriod))
		switch {
		case errors.Is(err, entity.ErrLeadNotFound):
			// já removido pelo sweeper ou por outro restore
		case err != nil:
			return nil, Upstream("LEAD_PURGE_FAILED", err)
		default:
			uc.Metrics.LeadsPurged("restore", 1)
			log.WithFields(log.Fields{"lead_id": leadID, "owner_id": ownerID}).
				Info("🗑️ lead removido definitivamente no restore (janela expirada)")
		}
		return nil, Gone("LEAD_GONE", msgLeadPurgedExpiry)
	}

	lead.Status = entity.LeadStatusNew
	lead.DeletedAt = nil
	lead.UpdatedAt = now
	if err := uc.Repo.UpdateState(ctx, lead, entity.GuardDeleted); err != nil {
		return nil, uc.mapRepoError(err, "LEAD_RESTORE_FAILED")
	}
	return lead, nil
}

func (uc *LeadLifecycleUseCase) findActive(ctx context.Context, leadID, ownerID string) (*entity.Lead, error) {
	if !isValidObjectID(leadID) {
		return nil, NotFound("LEAD_NOT_FOUND", msgLeadNotFound)
	}
	lead, err := uc.Repo.FindOwnedActive(ctx, leadID, ownerID)
	if err != nil {
		return nil, uc.mapRepoError(err, "LEAD_LOOKUP_FAILED")
	}
	return lead, nil
}

func (uc *LeadLifecycleUseCase) mapRepoError(err error, code string) error {
	if errors.Is(err, entity.ErrLeadNotFound) || errors.Is(err, entity.ErrInvalidID) {
		return NotFound("LEAD_NOT_FOUND", msgLeadNotFound)
	}
	return Upstream(code, err)
}
