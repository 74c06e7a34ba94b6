package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/infra/pdf"
	"github.com/xavierca1/funnel-leads/internal/usecase"
)

type leadSubmitter interface {
	Execute(ctx context.Context, input usecase.SubmitLeadInput) (*entity.Lead, error)
}

type leadLister interface {
	Execute(ctx context.Context, ownerID string) ([]*entity.Lead, error)
}

type leadLifecycle interface {
	SetStatus(ctx context.Context, leadID, ownerID string, status entity.LeadStatus) (*entity.Lead, error)
	SoftDelete(ctx context.Context, leadID, ownerID string) (*entity.Lead, error)
	Restore(ctx context.Context, leadID, ownerID string) (*entity.Lead, error)
}

type leadExporter interface {
	Execute(ctx context.Context, ownerID string, doc usecase.DocumentWriter) error
}

type liveFeed interface {
	Serve(w http.ResponseWriter, r *http.Request, ownerID string)
}

type LeadHandler struct {
	Submit    leadSubmitter
	List      leadLister
	Lifecycle leadLifecycle
	Export    leadExporter
	Feed      liveFeed
}

func NewLeadHandler(submit leadSubmitter, list leadLister, lifecycle leadLifecycle, export leadExporter, feed liveFeed) *LeadHandler {
	return &LeadHandler{Submit: submit, List: list, Lifecycle: lifecycle, Export: export, Feed: feed}
}

type LeadResponse struct {
	Success bool         `json:"success"`
	Lead    *entity.Lead `json:"lead"`
}

type LeadsResponse struct {
	Success bool           `json:"success"`
	Leads   []*entity.Lead `json:"leads"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Routes monta as rotas de /api/leads. protect é aplicado em tudo menos no POST público.
func (h *LeadHandler) Routes(protect func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.SubmitLead)

	r.Group(func(r chi.Router) {
		r.Use(protect)
		r.Get("/my", h.MyLeads)
		r.Get("/export/pdf", h.ExportPDF)
		r.Get("/ws", h.LiveFeed)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Patch("/{id}/delete", h.Delete)
		r.Patch("/{id}/restore", h.Restore)
	})
	return r
}

func (h *LeadHandler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	var input usecase.SubmitLeadInput
	if err := render.DecodeJSON(r.Body, &input); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Invalid JSON")
		return
	}

	lead, err := h.Submit.Execute(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, LeadResponse{Success: true, Lead: lead})
}

func (h *LeadHandler) MyLeads(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	leads, err := h.List.Execute(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, LeadsResponse{Success: true, Leads: leads})
}

func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Invalid JSON")
		return
	}

	lead, err := h.Lifecycle.SetStatus(r.Context(), chi.URLParam(r, "id"), user.ID, entity.LeadStatus(req.Status))
	h.respondLead(w, r, lead, err)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	lead, err := h.Lifecycle.SoftDelete(r.Context(), chi.URLParam(r, "id"), user.ID)
	h.respondLead(w, r, lead, err)
}

func (h *LeadHandler) Restore(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	lead, err := h.Lifecycle.Restore(r.Context(), chi.URLParam(r, "id"), user.ID)
	h.respondLead(w, r, lead, err)
}

func (h *LeadHandler) respondLead(w http.ResponseWriter, r *http.Request, lead *entity.Lead, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, LeadResponse{Success: true, Lead: lead})
}

// ExportPDF gera o relatório. O documento só é escrito na resposta depois que o
// cursor termina sem erro, então uma falha no meio ainda vira um JSON de erro.
func (h *LeadHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="leads_export.pdf"`)

	if err := h.Export.Execute(r.Context(), user.ID, pdf.NewDocument(w)); err != nil {
		w.Header().Del("Content-Disposition")
		writeError(w, r, err)
	}
}

func (h *LeadHandler) LiveFeed(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	h.Feed.Serve(w, r, user.ID)
}
