package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	adminhandler "projecthub/internal/admins/handler"
	adminmetrics "projecthub/internal/admins/metrics"
	adminservice "projecthub/internal/admins/service"
	adminstore "projecthub/internal/admins/store"
	directoryhandler "projecthub/internal/directory/handler"
	directorymetrics "projecthub/internal/directory/metrics"
	directoryservice "projecthub/internal/directory/service"
	directorystore "projecthub/internal/directory/store"
	"projecthub/internal/events"
	"projecthub/internal/jwtauth"
	"projecthub/internal/platform/config"
	"projecthub/internal/platform/httpserver"
	"projecthub/internal/platform/logger"
	platformmetrics "projecthub/internal/platform/metrics"
	"projecthub/internal/platform/middleware"
	platformredis "projecthub/internal/platform/redis"
	reviewhandler "projecthub/internal/reviews/handler"
	reviewmetrics "projecthub/internal/reviews/metrics"
	reviewservice "projecthub/internal/reviews/service"
	reviewstore "projecthub/internal/reviews/store"
	treasuryhandler "projecthub/internal/treasury/handler"
	"projecthub/internal/treasury/ledger"
	treasurymetrics "projecthub/internal/treasury/metrics"
	treasuryservice "projecthub/internal/treasury/service"
	treasurystore "projecthub/internal/treasury/store"
	verifhandler "projecthub/internal/verification/handler"
	verifmetrics "projecthub/internal/verification/metrics"
	verifservice "projecthub/internal/verification/service"
	verifstore "projecthub/internal/verification/store"
	"projecthub/pkg/domain"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Durable stores when a DSN is configured, in-memory otherwise.
	var db *sql.DB
	if cfg.Postgres.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	var adminStore adminservice.Store
	var projectStore directoryservice.Store
	var verifStore verifservice.Store
	var treasuryStore treasuryservice.Store
	var reviewStore reviewservice.Store
	if db != nil {
		adminStore = adminstore.NewPostgres(db)
		projectStore = directorystore.NewPostgres(db)
		verifStore = verifstore.NewPostgres(db)
		treasuryStore = treasurystore.NewPostgres(db)
		reviewStore = reviewstore.NewPostgres(db)
	} else {
		adminStore = adminstore.NewMemory()
		projectStore = directorystore.NewMemory()
		verifStore = verifstore.NewMemory()
		treasuryStore = treasurystore.NewMemory()
		reviewStore = reviewstore.NewMemory()
	}

	// Notification sink: redis pub/sub when configured, otherwise an
	// in-process worker draining to the memory store.
	group, ctx := errgroup.WithContext(ctx)
	var publisher events.Publisher
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		publisher = events.NewRedisPublisher(redisClient)
	} else {
		inbox := make(chan events.Event, 256)
		worker := events.NewWorker(events.NewMemoryStore(), inbox)
		group.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		publisher = events.NewChannelPublisher(inbox)
	}

	adminSvc := adminservice.New(adminStore,
		adminservice.WithLogger(log),
		adminservice.WithPublisher(publisher),
		adminservice.WithMetrics(adminmetrics.New()),
	)
	directorySvc := directoryservice.New(projectStore,
		directoryservice.WithLogger(log),
		directoryservice.WithPublisher(publisher),
		directoryservice.WithMetrics(directorymetrics.New()),
	)
	transferrer := ledger.New()
	treasurySvc := treasuryservice.New(treasuryStore, adminSvc, directorySvc, transferrer,
		treasuryservice.WithLogger(log),
		treasuryservice.WithPublisher(publisher),
		treasuryservice.WithMetrics(treasurymetrics.New()),
	)
	verifSvc := verifservice.New(verifStore, adminSvc, directorySvc, treasurySvc,
		verifservice.WithLogger(log),
		verifservice.WithPublisher(publisher),
		verifservice.WithMetrics(verifmetrics.New()),
	)
	reviewSvc := reviewservice.New(reviewStore, directorySvc,
		reviewservice.WithLogger(log),
		reviewservice.WithPublisher(publisher),
		reviewservice.WithMetrics(reviewmetrics.New()),
		reviewservice.WithSelfReviewAllowed(cfg.Governance.AllowSelfReview),
	)

	// Seed the admin registry on first start. Re-running against an already
	// initialized registry is a no-op.
	if seed := domain.Principal(cfg.Governance.SeedAdmin); !seed.IsZero() {
		initialized, err := adminStore.Initialized(ctx)
		if err != nil {
			log.Error("failed to check admin registry", "error", err)
			os.Exit(1)
		}
		if !initialized {
			if err := adminSvc.Initialize(ctx, seed); err != nil {
				log.Error("failed to seed admin registry", "error", err)
				os.Exit(1)
			}
			log.Info("admin registry seeded", "admin", seed)
		}
	}

	jwtSvc := jwtauth.New(cfg.Auth.JWTSigningKey, "projecthub")

	var authn func(http.Handler) http.Handler
	if cfg.Auth.TrustedHeader {
		authn = middleware.TrustedHeaderAuth(log)
	} else {
		authn = middleware.RequireAuth(jwtSvc, log)
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.Timeout(30 * time.Second))

	router.Get("/healthz", healthz(db, redisClient))
	router.Method(http.MethodGet, "/metrics", platformmetrics.Handler())

	adminHandler := adminhandler.New(adminSvc, log)
	directoryHandler := directoryhandler.New(directorySvc, log)
	verifHandler := verifhandler.New(verifSvc, log)
	treasuryHandler := treasuryhandler.New(treasurySvc, log)
	reviewHandler := reviewhandler.New(reviewSvc, log)

	directoryHandler.RegisterPublic(router)
	verifHandler.RegisterPublic(router)
	treasuryHandler.RegisterPublic(router)
	reviewHandler.RegisterPublic(router)

	router.Group(func(r chi.Router) {
		r.Use(authn)
		adminHandler.Register(r)
		directoryHandler.Register(r)
		verifHandler.Register(r)
		treasuryHandler.Register(r)
		reviewHandler.Register(r)
	})

	srv := httpserver.New(cfg.Server, router)

	group.Go(func() error {
		log.Info("starting projecthub", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func healthz(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
