package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/usecase"
)

const maxUploadSize = 10 << 20

type funnelService interface {
	Create(ctx context.Context, ownerID string, input usecase.FunnelInput) (*entity.Funnel, error)
	ListMine(ctx context.Context, ownerID string) ([]*entity.Funnel, error)
	Update(ctx context.Context, id, ownerID string, input usecase.FunnelInput) (*entity.Funnel, error)
	Delete(ctx context.Context, id, ownerID string) error
	UpdateBrandingImage(ctx context.Context, id, ownerID string, field entity.BrandingImageField, source usecase.ImageSource) (*usecase.BrandingImageOutput, error)
	UploadImage(ctx context.Context, ownerID, field, oldPublicID string, data []byte, contentType string) (*usecase.UploadImageOutput, error)
	GetPublic(ctx context.Context, slug string) (*entity.Funnel, error)
}

type FunnelHandler struct {
	Funnels funnelService
}

func NewFunnelHandler(funnels funnelService) *FunnelHandler {
	return &FunnelHandler{Funnels: funnels}
}

type FunnelResponse struct {
	Success bool           `json:"success"`
	Funnel  *entity.Funnel `json:"funnel"`
}

type FunnelsResponse struct {
	Success bool             `json:"success"`
	Funnels []*entity.Funnel `json:"funnels"`
}

type BrandingImageResponse struct {
	Success bool           `json:"success"`
	URL     string         `json:"url"`
	Funnel  *entity.Funnel `json:"funnel"`
}

type UploadImageResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *FunnelHandler) Routes(protect func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/public/{slug}", h.GetPublic)

	r.Group(func(r chi.Router) {
		r.Use(protect)
		r.Post("/", h.Create)
		r.Get("/my", h.MyFunnels)
		r.Post("/upload", h.UploadImage)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/branding/upload", h.UploadBranding)
	})
	return r
}

func (h *FunnelHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input usecase.FunnelInput
	if err := render.DecodeJSON(r.Body, &input); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Invalid JSON")
		return
	}

	funnel, err := h.Funnels.Create(r.Context(), user.ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, FunnelResponse{Success: true, Funnel: funnel})
}

func (h *FunnelHandler) MyFunnels(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	funnels, err := h.Funnels.ListMine(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, FunnelsResponse{Success: true, Funnels: funnels})
}

func (h *FunnelHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input usecase.FunnelInput
	if err := render.DecodeJSON(r.Body, &input); err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Invalid JSON")
		return
	}

	funnel, err := h.Funnels.Update(r.Context(), chi.URLParam(r, "id"), user.ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, FunnelResponse{Success: true, Funnel: funnel})
}

func (h *FunnelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.Funnels.Delete(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, MessageResponse{Success: true, Message: "Funnel deleted successfully"})
}

// UploadBranding aceita multipart com o arquivo em "image" ou, sem arquivo, uma URL
// no mesmo campo (form ou JSON).
func (h *FunnelHandler) UploadBranding(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	form, err := readImageForm(w, r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	var source usecase.ImageSource
	switch {
	case form.file != nil:
		source = usecase.UploadedBytes(form.file, form.contentType)
	case form.image != "":
		source = usecase.ExternalURL(form.image)
	}

	out, err := h.Funnels.UpdateBrandingImage(r.Context(), chi.URLParam(r, "id"), user.ID, entity.BrandingImageField(form.field), source)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, BrandingImageResponse{Success: true, URL: out.URL, Funnel: out.Funnel})
}

func (h *FunnelHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	form, err := readImageForm(w, r)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	out, err := h.Funnels.UploadImage(r.Context(), user.ID, form.field, form.oldPublicID, form.file, form.contentType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, UploadImageResponse{Success: true, URL: out.URL, PublicID: out.PublicID})
}

func (h *FunnelHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	funnel, err := h.Funnels.GetPublic(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, FunnelResponse{Success: true, Funnel: funnel})
}

type imageForm struct {
	field       string
	image       string
	oldPublicID string
	file        []byte
	contentType string
}

func readImageForm(w http.ResponseWriter, r *http.Request) (*imageForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Field       string `json:"field"`
			Image       string `json:"image"`
			OldPublicID string `json:"old_public_id"`
		}
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			return nil, err
		}
		return &imageForm{field: body.Field, image: body.Image, oldPublicID: body.OldPublicID}, nil
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, err
	}

	form := &imageForm{
		field:       r.FormValue("field"),
		image:       r.FormValue("image"),
		oldPublicID: r.FormValue("old_public_id"),
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return form, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	form.file = data
	form.contentType = header.Header.Get("Content-Type")
	return form, nil
}
