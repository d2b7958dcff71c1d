package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/fantasy-waivers/internal/config"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/jobscheduler"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/league"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/roster"
	"github.com/riskibarqy/fantasy-waivers/internal/domain/waiver"
	"github.com/riskibarqy/fantasy-waivers/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/fantasy-waivers/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/fantasy-waivers/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fantasy-waivers/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-waivers/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fantasy-waivers/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/fantasy-waivers/internal/platform/id"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/lock"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-waivers/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// App owns the HTTP server and everything it needs to shut down cleanly.
type App struct {
	Server *http.Server
	poller *waiverPoller
	db     *sqlx.DB
	logger *logging.Logger
}

type stores struct {
	leagues    league.Repository
	rosters    roster.Store
	claims     waiver.ClaimRepository
	passes     waiver.PassRepository
	settler    waiver.Settler
	locker     usecase.PassLocker
	dispatches jobscheduler.Repository
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	var (
		st  stores
		db  *sqlx.DB
		err error
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err = openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		st, err = postgresStores(ctx, cfg, db, logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	default:
		st = memoryStores(cfg)
	}

	ids := idgen.NewUUIDGenerator()
	claimSvc := usecase.NewWaiverClaimService(st.leagues, st.rosters, st.claims, ids, logger.Named("waiver.claims"))
	processSvc := usecase.NewWaiverProcessingService(
		st.leagues,
		st.rosters,
		st.claims,
		st.passes,
		st.settler,
		st.locker,
		ids,
		usecase.WaiverProcessingConfig{Workers: cfg.WaiverWorkers},
		logger.Named("waiver.processing"),
	)
	scheduleSvc := usecase.NewWaiverScheduleService(
		st.leagues,
		processSvc,
		newJobQueue(cfg, logger),
		st.dispatches,
		logger.Named("waiver.schedule"),
	)

	anubisClient := anubis.NewClient(
		&http.Client{
			Timeout:   cfg.AnubisTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		anubis.Config{
			BaseURL:        cfg.AnubisBaseURL,
			IntrospectPath: cfg.AnubisIntrospectURL,
			AdminKey:       cfg.AnubisAdminKey,
			CacheTTL:       cfg.AnubisCacheTTL,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.AnubisCircuitEnabled,
				FailureThreshold: cfg.AnubisCircuitFailureCount,
				OpenTimeout:      cfg.AnubisCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.AnubisCircuitHalfOpenMaxReq,
			},
		},
		logger.Named("anubis"),
	)

	handler := httpapi.NewHandler(claimSvc, processSvc, scheduleSvc, logger.Named("http"))
	router := httpapi.NewRouter(handler, anubisClient, logger.Named("http"), cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	app := &App{Server: server, db: db, logger: logger}
	// Without QStash nothing calls the process job, so poll for due cutoffs.
	if !cfg.QStashEnabled {
		app.poller = startWaiverPoller(processSvc, cfg.WaiverPollInterval, logger.Named("waiver.poller"))
	}

	logger.Info("app initialized",
		"storage", cfg.StorageDriver,
		"qstash_enabled", cfg.QStashEnabled,
		"waiver_mode", cfg.WaiverDefaults.Mode,
		"waiver_schedule", cfg.WaiverSchedule.String(),
	)
	return app, nil
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.poller != nil {
		a.poller.stop()
	}
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errs...)
}

func memoryStores(cfg config.Config) stores {
	rosters := memory.NewRosterStore(memory.SeedPlayers(), memory.SeedTeams(cfg.WaiverFaabBudget))
	claims := memory.NewClaimLedger(nil)

	return stores{
		leagues:    memory.NewLeagueRepository(memory.SeedLeagues(cfg.WaiverDefaults, cfg.WaiverFaabBudget, cfg.WaiverSchedule)),
		rosters:    rosters,
		claims:     claims,
		passes:     memory.NewPassRepository(),
		settler:    memory.NewSettlementWriter(rosters, claims),
		locker:     lock.NewKeyed(),
		dispatches: memory.NewJobDispatchRepository(),
	}
}

func postgresStores(ctx context.Context, cfg config.Config, db *sqlx.DB, logger *logging.Logger) (stores, error) {
	if cfg.DBSeedOnStart {
		if err := postgres.BootstrapSeed(ctx, db, cfg.WaiverDefaults, cfg.WaiverFaabBudget, cfg.WaiverSchedule); err != nil {
			return stores{}, fmt.Errorf("bootstrap seed: %w", err)
		}
		logger.Info("database seeded", "db", dbNameFromURL(cfg.DBURL))
	}

	var leagues league.Repository = postgres.NewLeagueRepository(db)
	if cfg.CacheEnabled {
		leagues = cache.NewLeagueRepository(leagues, cfg.CacheTTL)
	}

	return stores{
		leagues:    leagues,
		rosters:    postgres.NewRosterStore(db),
		claims:     postgres.NewClaimRepository(db),
		passes:     postgres.NewPassRepository(db),
		settler:    postgres.NewSettlementRepository(db),
		locker:     postgres.NewAdvisoryLocker(db, logger),
		dispatches: postgres.NewJobDispatchRepository(db),
	}, nil
}

func newJobQueue(cfg config.Config, logger *logging.Logger) usecase.JobQueue {
	if !cfg.QStashEnabled {
		return usecase.NewNoopJobQueue()
	}

	return jobqueue.NewQStashPublisher(jobqueue.QStashPublisherConfig{
		BaseURL:          cfg.QStashBaseURL,
		Token:            cfg.QStashToken,
		TargetBaseURL:    cfg.QStashTargetBaseURL,
		Retries:          cfg.QStashRetries,
		InternalJobToken: cfg.InternalJobToken,
		Timeout:          10 * time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.QStashCircuitEnabled,
			FailureThreshold: cfg.QStashCircuitFailureCount,
			OpenTimeout:      cfg.QStashCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
		},
	}, logger.Named("qstash"))
}
