package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/xavierca1/funnel-leads/internal/config"
	"github.com/xavierca1/funnel-leads/internal/infra/database"
	"github.com/xavierca1/funnel-leads/internal/infra/mongodb"
	"github.com/xavierca1/funnel-leads/internal/infra/queue"
	"github.com/xavierca1/funnel-leads/internal/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// app agrupa as conexões abertas pelo processo.
type app struct {
	cfg    *config.Config
	mongo  *mongo.Client
	mdb    *mongo.Database
	db     *sql.DB
	redis  *redis.Client
	rabbit *queue.RabbitMQ
}

func openApp(ctx context.Context, cfg *config.Config, withBroker bool) (*app, error) {
	a := &app{cfg: cfg}

	client, err := mongodb.NewClient(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	a.mongo = client
	a.mdb = client.Database(cfg.MongoDB)
	log.Infof("🍃 MongoDB conectado (db=%s)", cfg.MongoDB)

	db, err := database.NewDBConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db
	log.Info("🐘 Postgres conectado")

	if !withBroker {
		return a, nil
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("REDIS_URL inválida: %w", err)
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			log.Warnf("⚠️ Redis indisponível, rate limit em memória: %v", err)
			a.redis.Close()
			a.redis = nil
		}
	}

	if cfg.RabbitMQURL != "" {
		rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.Warnf("⚠️ RabbitMQ indisponível, notificações desativadas: %v", err)
		} else {
			a.rabbit = rabbit
			log.Info("🐇 RabbitMQ conectado")
		}
	}

	return a, nil
}

func (a *app) Close() {
	if a.rabbit != nil {
		a.rabbit.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.mongo != nil {
		_ = a.mongo.Disconnect(context.Background())
	}
}
