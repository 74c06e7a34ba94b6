package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/infra/queue"
	"github.com/xavierca1/funnel-leads/internal/log"
)

const sideEffectTimeout = 5 * time.Second

type SubmitLeadUseCase struct {
	Leads       entity.LeadRepositoryInterface
	Funnels     entity.FunnelRepositoryInterface
	Queue       QueueProducerInterface
	Broadcaster LeadBroadcaster
	Metrics     DomainMetrics

	// sideEffects roda os efeitos fire-and-forget; nos testes é trocado por execução síncrona
	sideEffects func(func())
}

func NewSubmitLeadUseCase(
	leads entity.LeadRepositoryInterface,
	funnels entity.FunnelRepositoryInterface,
	queue QueueProducerInterface,
	broadcaster LeadBroadcaster,
	metrics DomainMetrics,
) *SubmitLeadUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &SubmitLeadUseCase{
		Leads:       leads,
		Funnels:     funnels,
		Queue:       queue,
		Broadcaster: broadcaster,
		Metrics:     metrics,
		sideEffects: func(fn func()) { go fn() },
	}
}

func (uc *SubmitLeadUseCase) Execute(ctx context.Context, input SubmitLeadInput) (*entity.Lead, error) {
	input.Phone = strings.TrimSpace(input.Phone)
	input.Email = strings.TrimSpace(input.Email)
	if errs := ValidateSubmitLeadInput(input); len(errs) > 0 {
		return nil, asInvalidArgument(errs)
	}

	funnel, err := uc.Funnels.FindByID(ctx, input.FunnelID)
	if err != nil {
		if errors.Is(err, entity.ErrFunnelNotFound) || errors.Is(err, entity.ErrInvalidID) {
			return nil, NotFound("INVALID_FUNNEL", "Invalid funnel")
		}
		return nil, Upstream("FUNNEL_LOOKUP_FAILED", err)
	}

	lead, err := entity.NewLead(
		funnel,
		strings.TrimSpace(input.Name),
		input.Phone,
		input.Email,
		strings.TrimSpace(input.Address),
		entity.PreferredContact(input.PreferredContact),
		input.Answers,
		input.UTM,
	)
	if err != nil {
		return nil, InvalidArgument("INVALID_LEAD", err.Error())
	}

	if err := uc.Leads.Create(ctx, lead); err != nil {
		return nil, Upstream("LEAD_CREATE_FAILED", err)
	}

	uc.Metrics.LeadSubmitted()
	uc.afterCreate(lead)

	return lead, nil
}

// afterCreate dispara contador, fila e broadcast sem bloquear a resposta.
// Falhas aqui só vão pro log.
func (uc *SubmitLeadUseCase) afterCreate(lead *entity.Lead) {
	snapshot := *lead

	uc.sideEffects(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		if err := uc.Funnels.IncrementMetric(ctx, snapshot.FunnelID, entity.MetricTotalLeads); err != nil {
			log.WithError(err).WithField("funnel_id", snapshot.FunnelID).Warn("⚠️ falha ao incrementar total_leads")
		}

		if uc.Queue != nil {
			payload := queue.LeadCapturedPayload{
				LeadID:           snapshot.ID,
				FunnelID:         snapshot.FunnelID,
				FunnelTitle:      snapshot.FunnelTitle,
				BusinessUserID:   snapshot.BusinessUserID,
				Name:             snapshot.Name,
				Phone:            snapshot.Phone,
				Email:            snapshot.Email,
				PreferredContact: string(snapshot.PreferredContact),
				CreatedAt:        snapshot.CreatedAt,
			}
			if err := uc.Queue.PublishLeadCaptured(ctx, payload); err != nil {
				log.WithError(err).WithField("lead_id", snapshot.ID).Warn("⚠️ falha ao publicar lead na fila")
			}
		}

		if uc.Broadcaster != nil {
			uc.Broadcaster.BroadcastLead(snapshot.BusinessUserID, &snapshot)
		}
	})
}

// ListLeadsUseCase devolve os leads não deletados do dono, mais novos primeiro.
type ListLeadsUseCase struct {
	Repo entity.LeadRepositoryInterface
}

func NewListLeadsUseCase(repo entity.LeadRepositoryInterface) *ListLeadsUseCase {
	return &ListLeadsUseCase{Repo: repo}
}

func (uc *ListLeadsUseCase) Execute(ctx context.Context, ownerID string) ([]*entity.Lead, error) {
	leads, err := uc.Repo.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, Upstream("LEAD_LIST_FAILED", err)
	}
	if leads == nil {
		leads = []*entity.Lead{}
	}
	return leads, nil
}
