package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xavierca1/funnel-leads/internal/entity"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type LeadRepository struct {
	Collection *mongo.Collection
}

func NewLeadRepository(db *mongo.Database) *LeadRepository {
	return &LeadRepository{Collection: db.Collection(CollectionLeads)}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	doc, err := newLeadDocument(lead)
	if err != nil {
		return err
	}
	doc.ID = bson.NewObjectID()

	if _, err := r.Collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("erro ao inserir lead: %w", err)
	}

	lead.ID = doc.ID.Hex()
	return nil
}

func (r *LeadRepository) FindOwned(ctx context.Context, id, ownerID string) (*entity.Lead, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, filter)
}

func (r *LeadRepository) FindOwnedActive(ctx context.Context, id, ownerID string) (*entity.Lead, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	filter = append(filter, bson.E{Key: "status", Value: bson.D{{Key: "$ne", Value: string(entity.LeadStatusDeleted)}}})
	return r.findOne(ctx, filter)
}

func (r *LeadRepository) findOne(ctx context.Context, filter bson.D) (*entity.Lead, error) {
	var doc leadDocument
	if err := r.Collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, fmt.Errorf("erro ao buscar lead: %w", err)
	}
	return doc.toEntity(), nil
}

func (r *LeadRepository) ListActiveByOwner(ctx context.Context, ownerID string) ([]*entity.Lead, error) {
	cursor, err := r.Collection.Aggregate(ctx, activeByOwnerPipeline(ownerID))
	if err != nil {
		return nil, fmt.Errorf("erro ao listar leads: %w", err)
	}
	defer cursor.Close(ctx)

	leads := []*entity.Lead{}
	for cursor.Next(ctx) {
		var v leadView
		if err := cursor.Decode(&v); err != nil {
			return nil, fmt.Errorf("erro ao decodificar lead: %w", err)
		}
		leads = append(leads, v.toEntity())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("erro ao listar leads: %w", err)
	}

	return leads, nil
}

// StreamByOwner devolve um cursor do driver; nada é carregado além do lote atual.
func (r *LeadRepository) StreamByOwner(ctx context.Context, ownerID string) (entity.LeadCursor, error) {
	cursor, err := r.Collection.Aggregate(ctx, activeByOwnerPipeline(ownerID))
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir cursor de leads: %w", err)
	}
	return &leadCursor{cursor: cursor}, nil
}

// UpdateState grava só os campos do ciclo de vida: status, deleted_at e updatedAt.
// O guard entra no filtro, então duas transições concorrentes não passam as duas.
func (r *LeadRepository) UpdateState(ctx context.Context, lead *entity.Lead, guard entity.StateGuard) error {
	filter, err := guardedFilter(lead.ID, lead.BusinessUserID, guard)
	if err != nil {
		return err
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: string(lead.Status)},
		{Key: "deleted_at", Value: lead.DeletedAt},
		{Key: "updatedAt", Value: lead.UpdatedAt},
	}}}

	result, err := r.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("erro ao atualizar lead: %w", err)
	}
	if result.MatchedCount == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) Purge(ctx context.Context, id, ownerID string, cutoff time.Time) error {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return err
	}
	filter = append(filter, expiredFilter(cutoff)...)

	result, err := r.Collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("erro ao remover lead: %w", err)
	}
	if result.DeletedCount == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.Collection.DeleteMany(ctx, expiredFilter(cutoff))
	if err != nil {
		return 0, fmt.Errorf("erro ao expurgar leads: %w", err)
	}
	return result.DeletedCount, nil
}

func ownedFilter(id, ownerID string) (bson.D, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, entity.ErrInvalidID
	}
	return bson.D{{Key: "_id", Value: oid}, {Key: "business_user_id", Value: ownerID}}, nil
}

func guardedFilter(id, ownerID string, guard entity.StateGuard) (bson.D, error) {
	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}
	deleted := string(entity.LeadStatusDeleted)
	switch guard {
	case entity.GuardActive:
		filter = append(filter, bson.E{Key: "status", Value: bson.D{{Key: "$ne", Value: deleted}}})
	case entity.GuardDeleted:
		filter = append(filter, bson.E{Key: "status", Value: deleted})
	}
	return filter, nil
}

func expiredFilter(cutoff time.Time) bson.D {
	return bson.D{
		{Key: "status", Value: string(entity.LeadStatusDeleted)},
		{Key: "deleted_at", Value: bson.D{{Key: "$lt", Value: cutoff}}},
	}
}

// activeByOwnerPipeline filtra os leads não deletados do dono, do mais novo pro mais antigo,
// e junta título e slug do funil.
func activeByOwnerPipeline(ownerID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "business_user_id", Value: ownerID},
			{Key: "status", Value: bson.D{{Key: "$ne", Value: string(entity.LeadStatusDeleted)}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: CollectionFunnels},
			{Key: "localField", Value: "funnel_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "funnel"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$funnel"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "funnel_title", Value: "$funnel.title"},
			{Key: "funnel_slug", Value: "$funnel.slug"},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "funnel", Value: 0}}}},
	}
}

type leadCursor struct {
	cursor  *mongo.Cursor
	current *entity.Lead
	err     error
}

func (c *leadCursor) Next(ctx context.Context) bool {
	c.current = nil
	if c.err != nil || !c.cursor.Next(ctx) {
		return false
	}

	var v leadView
	if err := c.cursor.Decode(&v); err != nil {
		c.err = fmt.Errorf("erro ao decodificar lead: %w", err)
		return false
	}
	c.current = v.toEntity()
	return true
}

func (c *leadCursor) Lead() *entity.Lead { return c.current }

func (c *leadCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.cursor.Err()
}

func (c *leadCursor) Close(ctx context.Context) error {
	return c.cursor.Close(ctx)
}
