package worker

import (
	"context"
	"time"

	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/log"
)

type purgeRecorder interface {
	LeadsPurged(reason string, n int64)
}

// PurgeSweeper apaga de vez os leads que passaram da janela de restauração.
// O restore continua fazendo o expurgo preguiçoso; o sweeper só evita acúmulo.
type PurgeSweeper struct {
	repo         entity.LeadRepositoryInterface
	metrics      purgeRecorder
	tickInterval time.Duration
	now          func() time.Time
}

func NewPurgeSweeper(repo entity.LeadRepositoryInterface, metrics purgeRecorder, interval time.Duration) *PurgeSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &PurgeSweeper{
		repo:         repo,
		metrics:      metrics,
		tickInterval: interval,
		now:          time.Now,
	}
}

func (w *PurgeSweeper) Start(ctx context.Context) {
	log.Infof("🧹 Purge Sweeper iniciado (intervalo %s)", w.tickInterval)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("⚠️ Purge Sweeper encerrado")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep roda uma passada e devolve quantos leads foram removidos.
func (w *PurgeSweeper) Sweep(ctx context.Context) int64 {
	cutoff := w.now().Add(-entity.RestoreGracePeriod)

	n, err := w.repo.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		log.Errorf("❌ Erro ao expurgar leads deletados: %v", err)
		return 0
	}

	if n > 0 {
		w.metrics.LeadsPurged("sweep", n)
		log.Infof("✅ %d lead(s) removidos definitivamente (deleted_at < %s)", n, cutoff.Format(time.RFC3339))
	}
	return n
}
