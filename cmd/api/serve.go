package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/xavierca1/funnel-leads/internal/infra/database"
	"github.com/xavierca1/funnel-leads/internal/infra/http/handlers"
	"github.com/xavierca1/funnel-leads/internal/infra/http/middleware"
	"github.com/xavierca1/funnel-leads/internal/infra/mail"
	"github.com/xavierca1/funnel-leads/internal/infra/mongodb"
	"github.com/xavierca1/funnel-leads/internal/infra/queue"
	"github.com/xavierca1/funnel-leads/internal/infra/realtime"
	"github.com/xavierca1/funnel-leads/internal/infra/storage"
	"github.com/xavierca1/funnel-leads/internal/infra/worker"
	"github.com/xavierca1/funnel-leads/internal/log"
	"github.com/xavierca1/funnel-leads/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Sobe a API HTTP, o sweeper de leads e o worker de notificações",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := mongodb.EnsureIndexes(ctx, a.mdb); err != nil {
		return err
	}

	// 1. Repositórios
	leadRepo := mongodb.NewLeadRepository(a.mdb)
	funnelRepo := mongodb.NewFunnelRepository(a.mdb)
	userRepo := database.NewBusinessUserRepository(a.db)

	// 2. Adapters
	metrics := middleware.DomainMetrics{}
	hub := realtime.NewHub()

	var producer usecase.QueueProducerInterface
	if a.rabbit != nil {
		producer = queue.NewProducer(a.rabbit.Ch)
	}

	var uploader usecase.ImageUploader
	if cfg.StorageEnabled() {
		uploader = storage.NewSupabaseUploader(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket)
	} else {
		log.Warn("⚠️ storage não configurado, upload de imagens desativado")
	}

	// 3. UseCases
	submitUC := usecase.NewSubmitLeadUseCase(leadRepo, funnelRepo, producer, hub, metrics)
	listUC := usecase.NewListLeadsUseCase(leadRepo)
	lifecycleUC := usecase.NewLeadLifecycleUseCase(leadRepo, metrics)
	exportUC := usecase.NewExportLeadsUseCase(leadRepo, metrics)
	exportUC.MaxLeads = cfg.ExportMaxLeads
	funnelUC := usecase.NewFunnelUseCase(funnelRepo, uploader)

	// 4. Background
	go worker.NewPurgeSweeper(leadRepo, metrics, cfg.PurgeInterval).Start(ctx)

	if a.rabbit != nil && cfg.MailEnabled() {
		if err := startNotificationWorker(ctx, a, userRepo); err != nil {
			log.Warnf("⚠️ worker de notificações não iniciado: %v", err)
		}
	}

	// 5. Handlers
	handlers.ExposeErrorDetail = !cfg.IsProduction()
	auth := middleware.NewAuth(cfg.JWTSecret, userRepo)
	leadHandler := handlers.NewLeadHandler(submitUC, listUC, lifecycleUC, exportUC, hub)
	funnelHandler := handlers.NewFunnelHandler(funnelUC)
	healthHandler := handlers.NewHealthHandler(Version, healthDeps(a))

	var limiter middleware.Limiter
	if a.redis != nil {
		limiter = middleware.NewRedisLimiter(a.redis, cfg.RateLimit, cfg.RateWindow)
	} else {
		mem := middleware.NewMemoryLimiter(cfg.RateLimit, cfg.RateWindow)
		go mem.Cleanup(ctx, 10*time.Minute)
		limiter = mem
	}

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.FrontendURL},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter))
		r.Use(chimw.RequestSize(10 << 20))
		r.Mount("/leads", leadHandler.Routes(auth.Protect))
		r.Mount("/funnels", funnelHandler.Routes(auth.Protect))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("🔥 Server funnel-leads rodando na porta %s (%s)", cfg.Port, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("⚠️ sinal recebido, encerrando...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("❌ shutdown forçado: %v", err)
		return err
	}
	log.Info("✅ servidor encerrado")
	return nil
}

func startNotificationWorker(ctx context.Context, a *app, users *database.BusinessUserRepository) error {
	ch, err := a.rabbit.Conn.Channel()
	if err != nil {
		return err
	}

	cfg := a.cfg
	sender := mail.NewEmailSender(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailFrom)
	notify := usecase.NewNotifyOwnerUseCase(users, sender, cfg.DashboardURL)

	go func() {
		defer ch.Close()
		if err := queue.NewWorker(ch, notify).Start(ctx, queue.QueueName); err != nil {
			log.Errorf("❌ worker de notificações parou: %v", err)
		}
	}()
	return nil
}

func healthDeps(a *app) map[string]handlers.Pinger {
	deps := map[string]handlers.Pinger{
		"mongodb": handlers.PingFunc(func(ctx context.Context) error {
			return a.mongo.Ping(ctx, readpref.Primary())
		}),
		"postgres": handlers.PingFunc(a.db.PingContext),
		"redis":    nil,
		"rabbitmq": nil,
	}
	if a.redis != nil {
		deps["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	if a.rabbit != nil {
		deps["rabbitmq"] = handlers.PingFunc(func(context.Context) error {
			return a.rabbit.Ping()
		})
	}
	return deps
}
