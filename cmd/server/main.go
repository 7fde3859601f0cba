package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	accountstore "realmgate/internal/account/store"
	"realmgate/internal/audit"
	authservice "realmgate/internal/auth/service"
	clientservice "realmgate/internal/client/service"
	clientstore "realmgate/internal/client/store"
	"realmgate/internal/platform/config"
	"realmgate/internal/platform/httpserver"
	"realmgate/internal/platform/logger"
	"realmgate/internal/platform/metrics"
	redisplatform "realmgate/internal/platform/redis"
	"realmgate/internal/realm"
	"realmgate/internal/revocation"
	"realmgate/internal/token"
	httptransport "realmgate/internal/transport/http"
	"realmgate/pkg/secrets"
)

// main wires dependencies and runs the HTTP server alongside the audit
// worker. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	registry := realm.NewRegistry(cfg.Realms...)
	tokens := token.NewService(registry, cfg.FallbackSigningSecret,
		token.WithLogger(log),
		token.WithMetrics(m),
	)

	var (
		accounts authservice.AccountDirectory
		clients  clientRepository
		db       *sql.DB
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		accounts = accountstore.NewPostgres(db)
		clients = clientstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		accounts = accountstore.NewInMemory()
		clients = clientstore.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	rc, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return err
	}
	var revocations authservice.Revocations
	if rc != nil {
		defer rc.Close()
		revocations = revocation.NewRedis(rc.Client)
		log.Info("using redis-backed token revocation list")
	} else {
		revocations = revocation.NewInMemory()
		log.Warn("REDIS_URL not set, using process-local token revocation list")
	}

	publisher := audit.NewPublisher(cfg.AuditBufferSize, log)
	auditStore := audit.NewInMemory()
	worker := audit.NewWorker(auditStore, publisher.Inbox(), log)

	auth := authservice.NewService(accounts, clients, tokens, secrets.NewHasher(cfg.BcryptCost),
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithAuditPublisher(publisher),
		authservice.WithRevocations(revocations),
	)
	clientAdmin := clientservice.NewService(clients,
		clientservice.WithLogger(log),
		clientservice.WithAuditPublisher(publisher),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:        auth,
		Accounts:    auth,
		Clients:     clientAdmin,
		Realms:      registry,
		Verifier:    tokens,
		Revocations: revocations,
		Health:      healthCheck(db, rc),
	}, httptransport.WithLogger(log))

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Run(gctx)
	})

	g.Go(func() error {
		log.Info("starting realmgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		publisher.Drain(shutdownCtx, auditStore)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// clientRepository is the union of the stores' surfaces: administrative CRUD
// for the client service and credential lookup for the auth flows.
type clientRepository interface {
	clientservice.ClientStore
	authservice.ClientDirectory
}

// healthCheck pings whichever backends are configured.
func healthCheck(db *sql.DB, rc *redisplatform.Client) httptransport.HealthChecker {
	return func(r *http.Request) error {
		ctx := r.Context()
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
		}
		if rc != nil {
			if err := rc.Health(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
