package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/log"
)

const msgFunnelNotFound = "Funnel not found"

type FunnelUseCase struct {
	Repo     entity.FunnelRepositoryInterface
	Uploader ImageUploader
	Now      func() time.Time

	sideEffects func(func())
}

func NewFunnelUseCase(repo entity.FunnelRepositoryInterface, uploader ImageUploader) *FunnelUseCase {
	return &FunnelUseCase{
		Repo:        repo,
		Uploader:    uploader,
		Now:         time.Now,
		sideEffects: func(fn func()) { go fn() },
	}
}

func (uc *FunnelUseCase) Create(ctx context.Context, ownerID string, input FunnelInput) (*entity.Funnel, error) {
	if errs := ValidateFunnelInput(input, true); len(errs) > 0 {
		return nil, asInvalidArgument(errs)
	}

	title := strings.TrimSpace(*input.Title)
	slug := entity.GenerateSlug(title)
	if slug == "" {
		return nil, InvalidArgument("INVALID_TITLE", "title must contain at least one letter or digit")
	}

	now := uc.Now()
	funnel := &entity.Funnel{
		BusinessUserID: ownerID,
		Title:          title,
		Slug:           slug,
		Questions:      normalizeQuestions(input.Questions),
		CaptureStep:    entity.DefaultCaptureStep(),
		Status:         entity.FunnelActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.Description != nil {
		funnel.Description = *input.Description
	}
	if input.Branding != nil {
		funnel.Branding = *input.Branding
	}
	if input.Contact != nil {
		funnel.Contact = *input.Contact
	}
	if input.CaptureStep != nil {
		funnel.CaptureStep = *input.CaptureStep
	}
	if input.Status != nil {
		funnel.Status = entity.FunnelStatus(*input.Status)
	}

	if err := uc.Repo.Create(ctx, funnel); err != nil {
		return nil, mapFunnelError(err, "FUNNEL_CREATE_FAILED")
	}
	return funnel, nil
}

func (uc *FunnelUseCase) ListMine(ctx context.Context, ownerID string) ([]*entity.Funnel, error) {
	funnels, err := uc.Repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, Upstream("FUNNEL_LIST_FAILED", err)
	}
	if funnels == nil {
		funnels = []*entity.Funnel{}
	}
	return funnels, nil
}

// Update aplica só os campos enviados. Título novo gera slug novo.
func (uc *FunnelUseCase) Update(ctx context.Context, id, ownerID string, input FunnelInput) (*entity.Funnel, error) {
	if errs := ValidateFunnelInput(input, false); len(errs) > 0 {
		return nil, asInvalidArgument(errs)
	}

	patch := entity.FunnelPatch{
		Description: input.Description,
		Branding:    input.Branding,
		Contact:     input.Contact,
		CaptureStep: input.CaptureStep,
	}
	if input.Questions != nil {
		patch.Questions = normalizeQuestions(input.Questions)
	}
	if input.Status != nil {
		status := entity.FunnelStatus(*input.Status)
		patch.Status = &status
	}
	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		title := strings.TrimSpace(*input.Title)
		slug := entity.GenerateSlug(title)
		if slug == "" {
			return nil, InvalidArgument("INVALID_TITLE", "title must contain at least one letter or digit")
		}
		patch.Title = &title
		patch.Slug = &slug
	}

	if patch.IsEmpty() {
		funnel, err := uc.Repo.FindOwned(ctx, id, ownerID)
		if err != nil {
			return nil, mapFunnelError(err, "FUNNEL_LOOKUP_FAILED")
		}
		return funnel, nil
	}

	funnel, err := uc.Repo.Update(ctx, id, ownerID, patch)
	if err != nil {
		return nil, mapFunnelError(err, "FUNNEL_UPDATE_FAILED")
	}
	return funnel, nil
}

// Delete remove o funil e tenta apagar as imagens dele no storage.
func (uc *FunnelUseCase) Delete(ctx context.Context, id, ownerID string) error {
	funnel, err := uc.Repo.FindOwned(ctx, id, ownerID)
	if err != nil {
		return mapFunnelError(err, "FUNNEL_LOOKUP_FAILED")
	}

	uc.removeAsset(ctx, funnel.Branding.LogoPublicID)
	uc.removeAsset(ctx, funnel.Branding.BackgroundImagePublicID)

	if err := uc.Repo.Delete(ctx, id, ownerID); err != nil {
		return mapFunnelError(err, "FUNNEL_DELETE_FAILED")
	}
	return nil
}

// UpdateBrandingImage troca o logo ou o background. Arquivo enviado vai pro storage;
// URL externa é gravada como está, sem public id.
func (uc *FunnelUseCase) UpdateBrandingImage(ctx context.Context, id, ownerID string, field entity.BrandingImageField, source ImageSource) (*BrandingImageOutput, error) {
	if !field.IsValid() {
		return nil, InvalidArgument("INVALID_FIELD", "Valid field (logo or background) is required")
	}

	funnel, err := uc.Repo.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, mapFunnelError(err, "FUNNEL_LOOKUP_FAILED")
	}
	oldPublicID := funnel.Branding.PublicID(field)

	var url, publicID string
	switch source.Kind {
	case ImageUploadedBytes:
		if len(source.Data) == 0 {
			return nil, InvalidArgument("NO_IMAGE", "No image provided")
		}
		if uc.Uploader == nil {
			return nil, Upstream("STORAGE_DISABLED", errors.New("image storage not configured"))
		}
		uc.removeAsset(ctx, oldPublicID)
		url, publicID, err = uc.Uploader.Upload(ctx, brandingFolder(ownerID, string(field)), source.Data, source.ContentType)
		if err != nil {
			return nil, Upstream("IMAGE_UPLOAD_FAILED", err)
		}
	case ImageExternalURL:
		if strings.TrimSpace(source.URL) == "" {
			return nil, InvalidArgument("NO_IMAGE", "No image provided")
		}
		uc.removeAsset(ctx, oldPublicID)
		url = strings.TrimSpace(source.URL)
	default:
		return nil, InvalidArgument("NO_IMAGE", "No image provided")
	}

	updated, err := uc.Repo.SetBrandingImage(ctx, id, ownerID, field, url, publicID)
	if err != nil {
		return nil, mapFunnelError(err, "FUNNEL_UPDATE_FAILED")
	}
	return &BrandingImageOutput{URL: url, Funnel: updated}, nil
}

// UploadImage sobe uma imagem avulsa, usada antes do funil existir. O old_public_id
// enviado pelo cliente só é apagado se estiver na pasta do próprio dono.
func (uc *FunnelUseCase) UploadImage(ctx context.Context, ownerID, field, oldPublicID string, data []byte, contentType string) (*UploadImageOutput, error) {
	if len(data) == 0 {
		return nil, InvalidArgument("NO_IMAGE", "No image file provided")
	}
	if oldPublicID != "" && !ownsAsset(ownerID, oldPublicID) {
		return nil, InvalidArgument("INVALID_PUBLIC_ID", "old_public_id does not belong to this account")
	}
	if uc.Uploader == nil {
		return nil, Upstream("STORAGE_DISABLED", errors.New("image storage not configured"))
	}

	uc.removeAsset(ctx, oldPublicID)

	src := UploadedBytes(data, contentType)
	url, publicID, err := uc.Uploader.Upload(ctx, brandingFolder(ownerID, field), src.Data, src.ContentType)
	if err != nil {
		return nil, Upstream("IMAGE_UPLOAD_FAILED", err)
	}
	return &UploadImageOutput{URL: url, PublicID: publicID}, nil
}

// GetPublic serve a página pública do funil. Só funis ativos; o dono não é exposto.
func (uc *FunnelUseCase) GetPublic(ctx context.Context, slug string) (*entity.Funnel, error) {
	funnel, err := uc.Repo.FindActiveBySlug(ctx, slug)
	if err != nil {
		return nil, mapFunnelError(err, "FUNNEL_LOOKUP_FAILED")
	}

	funnelID := funnel.ID
	uc.sideEffects(func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if err := uc.Repo.IncrementMetric(ctx, funnelID, entity.MetricTotalVisits); err != nil {
			log.WithError(err).WithField("funnel_id", funnelID).Warn("⚠️ falha ao incrementar total_visits")
		}
	})

	funnel.BusinessUserID = ""
	return funnel, nil
}

func (uc *FunnelUseCase) removeAsset(ctx context.Context, publicID string) {
	if publicID == "" || uc.Uploader == nil {
		return
	}
	if err := uc.Uploader.Remove(ctx, publicID); err != nil {
		log.WithError(err).WithField("public_id", publicID).Warn("⚠️ falha ao remover imagem antiga do storage")
	}
}

func normalizeQuestions(questions []entity.Question) []entity.Question {
	out := make([]entity.Question, 0, len(questions))
	for i, q := range questions {
		if q.StepNumber == 0 {
			q.StepNumber = i + 1
		}
		if q.IsRequired == nil {
			required := true
			q.IsRequired = &required
		}
		if q.Options == nil {
			q.Options = []entity.Option{}
		}
		out = append(out, q)
	}
	return out
}

func mapFunnelError(err error, code string) error {
	switch {
	case errors.Is(err, entity.ErrFunnelNotFound), errors.Is(err, entity.ErrInvalidID):
		return NotFound("FUNNEL_NOT_FOUND", msgFunnelNotFound)
	case errors.Is(err, entity.ErrSlugTaken):
		return Conflict("SLUG_TAKEN", "A funnel with this title already exists")
	}
	return Upstream(code, err)
}
