package usecase

import (
	"context"

	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/infra/queue"
)

type QueueProducerInterface interface {
	PublishLeadCaptured(ctx context.Context, payload queue.LeadCapturedPayload) error
}

// LeadBroadcaster entrega o lead novo para as conexões ao vivo do dono.
type LeadBroadcaster interface {
	BroadcastLead(ownerID string, lead *entity.Lead)
}

type ImageUploader interface {
	Upload(ctx context.Context, folder string, data []byte, contentType string) (url, publicID string, err error)
	Remove(ctx context.Context, publicID string) error
}

type DomainMetrics interface {
	LeadSubmitted()
	LeadsPurged(reason string, n int64)
	LeadsExported(n int)
}

// DocumentWriter é o stream de saída do export: append-only, com posição vertical e quebra de página.
type DocumentWriter interface {
	Title(text string)
	Subtitle(text string)
	Heading(text string)
	Line(text string)
	Small(text string)
	Gap(height float64)
	Rule()
	Y() float64
	AddPage()
	Close() error
}

type noopMetrics struct{}

func (noopMetrics) LeadSubmitted()            {}
func (noopMetrics) LeadsPurged(string, int64) {}
func (noopMetrics) LeadsExported(int)         {}
