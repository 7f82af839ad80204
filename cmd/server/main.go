package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/twmb/franz-go/pkg/kgo"

	adminadapters "dossier/internal/admin/adapters"
	adminhandler "dossier/internal/admin/handler"
	adminservice "dossier/internal/admin/service"
	"dossier/internal/audit"
	"dossier/internal/auth/guard"
	authhandler "dossier/internal/auth/handler"
	"dossier/internal/auth/lockout"
	authservice "dossier/internal/auth/service"
	"dossier/internal/auth/store/applicant"
	"dossier/internal/auth/store/revocation"
	"dossier/internal/auth/token"
	dossierhandler "dossier/internal/dossier/handler"
	dossierservice "dossier/internal/dossier/service"
	"dossier/internal/dossier/store/application"
	"dossier/internal/dossier/store/item"
	"dossier/internal/platform/config"
	"dossier/internal/platform/httpserver"
	"dossier/internal/platform/kafka"
	"dossier/internal/platform/logger"
	"dossier/internal/platform/metrics"
	"dossier/internal/platform/postgres"
	"dossier/internal/platform/redis"
	"dossier/pkg/platform/httputil"
	"dossier/pkg/platform/middleware/metadata"
	"dossier/pkg/platform/middleware/request"
	"dossier/pkg/platform/middleware/requesttime"
)

type applicantStore interface {
	authservice.ApplicantStore
	dossierservice.ProgressStore
	adminadapters.AuthApplicantStore
	adminservice.ProgressStore
}

type applicationStore interface {
	dossierservice.ApplicationStore
	adminservice.ApplicationStore
	adminadapters.DossierApplicationStore
}

type revocationStore interface {
	authservice.RevocationList
	guard.RevocationChecker
}

type infra struct {
	cfg         *config.Config
	log         *slog.Logger
	metrics     *metrics.Metrics
	db          *sqlx.DB
	redis       *redis.Client
	kafka       *kgo.Client
	auditor     *audit.Publisher
	applicants  applicantStore
	apps        applicationStore
	items       dossierservice.ItemStore
	revocations revocationStore
	lockouts    lockout.Store
	tx          dossierservice.TxRunner
}

// main wires dependencies, serves the router and drains in-flight requests
// on SIGINT/SIGTERM. Business logic lives in the internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	in, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer in.close()

	router, err := buildRouter(ctx, in)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.RequestTimeout)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting dossier server", "addr", cfg.Server.Addr, "postgres", cfg.UsesPostgres())
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

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func buildInfra(ctx context.Context, cfg *config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{cfg: cfg, log: log, metrics: metrics.New()}

	if cfg.UsesPostgres() {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		in.db = db
		if cfg.Database.MigrateOnStart {
			if err := postgres.Migrate(db); err != nil {
				in.close()
				return nil, err
			}
		}
		in.applicants = applicant.NewPostgres(db)
		in.apps = application.NewPostgres(db)
		in.items = item.NewPostgres(db)
		in.tx = newDossierPostgresTx(db)
	} else {
		log.Warn("DATABASE_URL not set, dossiers are kept in memory")
		in.applicants = applicant.NewInMemory()
		in.apps = application.NewInMemory()
		in.items = item.NewInMemory()
		in.tx = dossierservice.NewShardedTx()
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.close()
		return nil, err
	}
	if rc != nil {
		in.redis = rc
		in.revocations = revocation.NewRedis(rc.Client)
		in.lockouts = lockout.NewRedis(rc.Client)
	} else {
		in.revocations = revocation.NewInMemory()
		in.lockouts = lockout.NewInMemory()
	}

	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		in.close()
		return nil, err
	}
	var auditOpts []audit.Option
	if producer != nil {
		in.kafka = producer
		auditOpts = append(auditOpts, audit.WithKafka(producer, cfg.Kafka.AuditTopic))
	}
	in.auditor = audit.NewPublisher(log, auditOpts...)
	return in, nil
}

func (in *infra) close() {
	if in.kafka != nil {
		in.kafka.Close()
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.db != nil {
		_ = in.db.Close()
	}
}

func buildRouter(ctx context.Context, in *infra) (http.Handler, error) {
	cfg := in.cfg
	jwtService := token.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	g := guard.New(jwtService, in.revocations, in.auditor, in.log)

	accounts := authservice.New(in.applicants, jwtService, in.revocations,
		authservice.WithAuditor(in.auditor),
		authservice.WithMetrics(in.metrics),
		authservice.WithLogger(in.log),
		authservice.WithLegacyPlaintext(cfg.Auth.LegacyPlaintextApplicants),
		authservice.WithLockout(lockout.New(in.lockouts, lockout.Config{
			Attempts:     cfg.Auth.LockoutAttempts,
			Window:       cfg.Auth.LockoutWindow,
			LockDuration: cfg.Auth.LockoutDuration,
		}, lockout.WithAuditor(in.auditor), lockout.WithLogger(in.log))),
	)
	if cfg.Auth.BootstrapAdminEmail != "" {
		created, err := accounts.SeedAdmin(ctx, cfg.Auth.BootstrapAdminName, cfg.Auth.BootstrapAdminEmail, cfg.Auth.BootstrapAdminPassword)
		if err != nil {
			return nil, fmt.Errorf("seed admin: %w", err)
		}
		if created {
			in.log.Info("bootstrap admin created", "email", cfg.Auth.BootstrapAdminEmail)
		}
	}

	dossiers := dossierservice.New(in.apps, in.items, in.applicants, in.tx,
		dossierservice.WithAuditor(in.auditor),
		dossierservice.WithMetrics(in.metrics),
		dossierservice.WithLogger(in.log),
	)
	review := adminservice.New(
		adminadapters.NewApplicantStoreAdapter(in.applicants),
		adminadapters.NewApplicationStoreAdapter(in.apps),
		in.apps, in.items, in.applicants, in.tx, in.auditor, in.log,
	)

	r := chi.NewRouter()
	r.Use(request.Recovery(in.log))
	r.Use(request.RequestID)
	r.Use(request.Logger(in.log))
	r.Use(in.metrics.Latency)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/health", in.health)
	r.Method(http.MethodGet, "/metrics", in.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.Server.RequestTimeout))
		r.Use(request.ContentTypeJSON)
		authhandler.New(accounts, g, in.log).Register(r)
		dossierhandler.New(dossiers, g, in.log).Register(r)
		adminhandler.New(review, g, in.log).Register(r)
	})
	return r, nil
}

func (in *infra) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if in.db != nil {
		if err := in.db.PingContext(ctx); err != nil {
			status["postgres"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}
	if in.redis != nil {
		if err := in.redis.Health(ctx); err != nil {
			status["redis"] = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}
	if code != http.StatusOK {
		status["status"] = "degraded"
	}
	httputil.WriteJSON(w, code, status)
}
