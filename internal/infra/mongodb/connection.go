package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	MongoTimeout      = 20 * time.Second
	CollectionLeads   = "leads"
	CollectionFunnels = "funnels"
)

// NewClient conecta e faz o ping no primário. O client é compartilhado pelo processo todo
// e deve ser fechado com Disconnect no shutdown.
func NewClient(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetServerSelectionTimeout(10 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB não respondeu: %w", err)
	}

	return client, nil
}

// EnsureIndexes cria os índices usados pelas queries dos repositórios. É idempotente.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	funnelIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("slug_unique")},
		{Keys: bson.D{{Key: "business_user_id", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("owner_created")},
	}
	if _, err := db.Collection(CollectionFunnels).Indexes().CreateMany(ctx, funnelIdx); err != nil {
		return fmt.Errorf("índices de funnels: %w", err)
	}

	leadIdx := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "business_user_id", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("owner_status_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "deleted_at", Value: 1}},
			Options: options.Index().SetName("status_deleted_at"),
		},
	}
	if _, err := db.Collection(CollectionLeads).Indexes().CreateMany(ctx, leadIdx); err != nil {
		return fmt.Errorf("índices de leads: %w", err)
	}

	return nil
}
