package app

import (
	"net/http"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ujpest-analytics/transferroom-sync/external/transferroom"
	"github.com/ujpest-analytics/transferroom-sync/internal/config"
	"github.com/ujpest-analytics/transferroom-sync/internal/infrastructure/repository/postgres"
	"github.com/ujpest-analytics/transferroom-sync/internal/platform/logging"
	"github.com/ujpest-analytics/transferroom-sync/internal/platform/resilience"
	"github.com/ujpest-analytics/transferroom-sync/internal/usecase"
)

// App wires the sync pipeline: source client, stores, and services.
type App struct {
	Config config.Config
	Logger *logging.Logger
	DB     *sqlx.DB

	Sync      *usecase.SyncService
	Runs      *postgres.SyncRunRepository
	ChangeLog *postgres.ChangeLogRepository
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	dbOpts := []otelsql.Option{
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
	}
	if name := dbNameFromURL(cfg.DBURL); name != "" {
		dbOpts = append(dbOpts, otelsql.WithDBName(name))
	}
	db, err := otelsqlx.Connect("postgres", dsn, dbOpts...)
	if err != nil {
		return nil, crerr.Wrap(err, "connect database")
	}

	source := transferroom.NewClient(transferroom.ClientConfig{
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.TransferRoomTimeout,
		},
		BaseURL:         cfg.TransferRoomBaseURL,
		Email:           cfg.TransferRoomEmail,
		Password:        cfg.TransferRoomPassword,
		Timeout:         cfg.TransferRoomTimeout,
		TokenTTL:        cfg.TransferRoomTokenTTL,
		RequestInterval: cfg.TransferRoomRequestInterval,
		Retry: resilience.Retry{
			MaxAttempts: cfg.TransferRoomMaxRetries,
			BaseDelay:   cfg.TransferRoomRetryBaseDelay,
		},
		Logger: logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.TransferRoomCircuitEnabled,
			FailureThreshold: cfg.TransferRoomCircuitFailures,
			OpenTimeout:      cfg.TransferRoomCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.TransferRoomCircuitHalfOpenMax,
		},
	})

	runs := postgres.NewSyncRunRepository(db)
	upserts := usecase.NewUpsertService(
		postgres.NewPlayerStore(db),
		postgres.NewCompetitionStore(db),
		logger,
	)
	tracker := usecase.NewRunTracker(runs, logger)
	sync := usecase.NewSyncService(source, upserts, tracker, usecase.SyncConfig{
		PageSize:          cfg.SyncPageSize,
		BatchSize:         cfg.SyncBatchSize,
		MaxRecordFailures: cfg.SyncMaxRecordFailures,
		TestModeCap:       cfg.SyncTestCap,
		KindWorkers:       cfg.SyncKindWorkers,
	}, logger)

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Sync:      sync,
		Runs:      runs,
		ChangeLog: postgres.NewChangeLogRepository(db),
	}, nil
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
