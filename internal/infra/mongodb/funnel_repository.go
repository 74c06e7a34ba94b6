package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xavierca1/funnel-leads/internal/entity"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type FunnelRepository struct {
	Collection *mongo.Collection
}

func NewFunnelRepository(db *mongo.Database) *FunnelRepository {
	return &FunnelRepository{Collection: db.Collection(CollectionFunnels)}
}

func (r *FunnelRepository) Create(ctx context.Context, f *entity.Funnel) error {
	doc := newFunnelDocument(f)
	doc.ID = bson.NewObjectID()

	if _, err := r.Collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entity.ErrSlugTaken
		}
		return fmt.Errorf("erro ao inserir funil: %w", err)
	}

	created := doc.toEntity()
	*f = *created
	return nil
}

func (r *FunnelRepository) FindByID(ctx context.Context, id string) (*entity.Funnel, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, entity.ErrInvalidID
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *FunnelRepository) FindOwned(ctx context.Context, id, ownerID string) (*entity.Funnel, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, filter)
}

func (r *FunnelRepository) FindActiveBySlug(ctx context.Context, slug string) (*entity.Funnel, error) {
	return r.findOne(ctx, bson.D{
		{Key: "slug", Value: slug},
		{Key: "status", Value: string(entity.FunnelActive)},
	})
}

func (r *FunnelRepository) findOne(ctx context.Context, filter bson.D) (*entity.Funnel, error) {
	var doc funnelDocument
	if err := r.Collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrFunnelNotFound
		}
		return nil, fmt.Errorf("erro ao buscar funil: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *FunnelRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Funnel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.Collection.Find(ctx, bson.D{{Key: "business_user_id", Value: ownerID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar funis: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []funnelDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("erro ao decodificar funis: %w", err)
	}

	funnels := make([]*entity.Funnel, 0, len(docs))
	for i := range docs {
		funnels = append(funnels, docs[i].toEntity())
	}
	return funnels, nil
}

func (r *FunnelRepository) Update(ctx context.Context, id, ownerID string, patch entity.FunnelPatch) (*entity.Funnel, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	return r.findOneAndSet(ctx, filter, funnelPatchSet(patch, time.Now()))
}

func (r *FunnelRepository) SetBrandingImage(ctx context.Context, id, ownerID string, field entity.BrandingImageField, url, publicID string) (*entity.Funnel, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	return r.findOneAndSet(ctx, filter, brandingImageSet(field, url, publicID, time.Now()))
}

func (r *FunnelRepository) findOneAndSet(ctx context.Context, filter, set bson.D) (*entity.Funnel, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc funnelDocument
	err := r.Collection.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrFunnelNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, entity.ErrSlugTaken
		}
		return nil, fmt.Errorf("erro ao atualizar funil: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *FunnelRepository) Delete(ctx context.Context, id, ownerID string) error {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return err
	}

	result, err := r.Collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("erro ao remover funil: %w", err)
	}
	if result.DeletedCount == 0 {
		return entity.ErrFunnelNotFound
	}
	return nil
}

// IncrementMetric usa $inc para não perder incrementos concorrentes.
func (r *FunnelRepository) IncrementMetric(ctx context.Context, id string, metric entity.FunnelMetric) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return entity.ErrInvalidID
	}

	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "metrics." + string(metric), Value: 1}}}}
	result, err := r.Collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return fmt.Errorf("erro ao incrementar %s: %w", metric, err)
	}
	if result.MatchedCount == 0 {
		return entity.ErrFunnelNotFound
	}
	return nil
}

func funnelPatchSet(p entity.FunnelPatch, now time.Time) bson.D {
	set := bson.D{}
	if p.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *p.Title})
	}
	if p.Slug != nil {
		set = append(set, bson.E{Key: "slug", Value: *p.Slug})
	}
	if p.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *p.Description})
	}
	if p.Branding != nil {
		set = append(set, bson.E{Key: "branding", Value: brandingToDocument(*p.Branding)})
	}
	if p.Contact != nil {
		set = append(set, bson.E{Key: "contact", Value: contactDocument{
			PhoneNumber:    p.Contact.PhoneNumber,
			WhatsAppNumber: p.Contact.WhatsAppNumber,
		}})
	}
	if p.Questions != nil {
		set = append(set, bson.E{Key: "questions", Value: questionsToDocument(p.Questions)})
	}
	if p.CaptureStep != nil {
		set = append(set, bson.E{Key: "capture_step", Value: captureStepDocument(*p.CaptureStep)})
	}
	if p.Status != nil {
		set = append(set, bson.E{Key: "status", Value: string(*p.Status)})
	}
	return append(set, bson.E{Key: "updatedAt", Value: now})
}

func brandingImageSet(field entity.BrandingImageField, url, publicID string, now time.Time) bson.D {
	urlKey, idKey := "branding.logo_url", "branding.logo_public_id"
	if field == entity.BrandingBackground {
		urlKey, idKey = "branding.background_image_url", "branding.background_image_public_id"
	}
	return bson.D{
		{Key: urlKey, Value: url},
		{Key: idKey, Value: publicID},
		{Key: "updatedAt", Value: now},
	}
}
