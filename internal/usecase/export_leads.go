package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/log"
)

// PageBreakY é a posição vertical a partir da qual o próximo bloco vai pra página seguinte.
const PageBreakY = 700.0

const noLeadsLine = "No leads found matching the criteria."

// DefaultExportMaxLeads limita o export. O documento inteiro fica em memória até
// o Close (~2.3 KB por lead), então o teto fixa o pico de memória por requisição.
const DefaultExportMaxLeads = 10000

// ExportLeadsUseCase escreve todos os leads ativos do dono num DocumentWriter,
// um registro por vez a partir do cursor, até MaxLeads.
type ExportLeadsUseCase struct {
	Repo     entity.LeadRepositoryInterface
	Metrics  DomainMetrics
	Now      func() time.Time
	MaxLeads int
}

func NewExportLeadsUseCase(repo entity.LeadRepositoryInterface, metrics DomainMetrics) *ExportLeadsUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ExportLeadsUseCase{Repo: repo, Metrics: metrics, Now: time.Now, MaxLeads: DefaultExportMaxLeads}
}

// Execute só chama doc.Close() se o cursor terminar sem erro. Em caso de falha,
// ou se o dono tiver mais leads que MaxLeads, o documento parcial é abandonado.
func (uc *ExportLeadsUseCase) Execute(ctx context.Context, ownerID string, doc DocumentWriter) error {
	limit := uc.MaxLeads
	if limit <= 0 {
		limit = DefaultExportMaxLeads
	}

	cursor, err := uc.Repo.StreamByOwner(ctx, ownerID)
	if err != nil {
		return Upstream("EXPORT_QUERY_FAILED", err)
	}
	defer func() {
		if cerr := cursor.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.WithError(cerr).Warn("⚠️ falha ao fechar cursor do export")
		}
	}()

	doc.Title("Leads Export Report")
	doc.Gap(4)
	doc.Subtitle("Generated on: " + uc.Now().Format("2006-01-02 15:04:05"))
	doc.Gap(16)

	count := 0
	for cursor.Next(ctx) {
		if count == limit {
			log.WithFields(log.Fields{"owner_id": ownerID, "limit": limit}).
				Warn("⚠️ export acima do limite, abortado")
			return InvalidArgument("EXPORT_TOO_LARGE", fmt.Sprintf("Export is limited to %d leads", limit))
		}
		if doc.Y() > PageBreakY {
			doc.AddPage()
		}
		writeLeadBlock(doc, cursor.Lead())
		count++
	}
	if err := cursor.Err(); err != nil {
		log.WithError(err).WithFields(log.Fields{"owner_id": ownerID, "written": count}).
			Error("❌ cursor falhou no meio do export")
		return Upstream("EXPORT_STREAM_FAILED", err)
	}

	if count == 0 {
		doc.Line(noLeadsLine)
	}

	if err := doc.Close(); err != nil {
		return Upstream("EXPORT_WRITE_FAILED", err)
	}
	uc.Metrics.LeadsExported(count)
	return nil
}

func writeLeadBlock(doc DocumentWriter, lead *entity.Lead) {
	doc.Heading("Project: " + orNA(lead.FunnelTitle))
	doc.Gap(2)

	doc.Line("Name: " + orNA(lead.Name))
	doc.Line("Phone: " + orNA(lead.Phone))
	if lead.Email != "" {
		doc.Line("Email: " + lead.Email)
	}
	doc.Line("Status: " + string(lead.Status))

	contact := string(lead.PreferredContact)
	if contact == "" {
		contact = string(entity.ContactCall)
	}
	doc.Line("Preferred Contact: " + contact)

	if utm := formatUTM(lead.UTM); utm != "" {
		doc.Small("UTM: " + utm)
	}

	if len(lead.Answers) > 0 {
		doc.Gap(4)
		doc.Line("Questionnaire Answers:")
		for _, a := range lead.Answers {
			doc.Line(fmt.Sprintf("  • %s: %s", a.QuestionText, formatAnswer(a.Answer)))
		}
	}

	doc.Gap(8)
	doc.Rule()
	doc.Gap(8)
}

// formatUTM monta só as partes presentes; vazio quando não há source, medium nem campaign.
func formatUTM(u entity.UTM) string {
	var parts []string
	if u.Source != "" {
		parts = append(parts, "Source: "+u.Source)
	}
	if u.Medium != "" {
		parts = append(parts, "Medium: "+u.Medium)
	}
	if u.Campaign != "" {
		parts = append(parts, "Campaign: "+u.Campaign)
	}
	return strings.Join(parts, " | ")
}

func formatAnswer(v any) string {
	switch a := v.(type) {
	case nil:
		return ""
	case string:
		return a
	case []string:
		return strings.Join(a, ", ")
	case []any:
		parts := make([]string, 0, len(a))
		for _, p := range a {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
