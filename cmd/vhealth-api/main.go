package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vhealth/vhealth-api/internal/config"
	v1 "github.com/vhealth/vhealth-api/internal/handler/v1"
	"github.com/vhealth/vhealth-api/internal/repository/postgres"
	"github.com/vhealth/vhealth-api/internal/service"
	"github.com/vhealth/vhealth-api/pkg/auth"
	"github.com/vhealth/vhealth-api/pkg/blobstore"
	"github.com/vhealth/vhealth-api/pkg/database"
	"github.com/vhealth/vhealth-api/pkg/logger"
	"github.com/vhealth/vhealth-api/pkg/metrics"
	"github.com/vhealth/vhealth-api/pkg/pdftext"
	"github.com/vhealth/vhealth-api/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vhealth-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting vhealth-api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Warn("tracer shutdown", zap.Error(err))
			}
		}()
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	blobs, err := newBlobStore(cfg, log)
	if err != nil {
		return fmt.Errorf("initializing blob store: %w", err)
	}

	coll := metrics.NewCollector("vhealth")
	if err := database.InstrumentMetrics(db, coll); err != nil {
		return fmt.Errorf("instrumenting database metrics: %w", err)
	}
	jwtManager := auth.NewJWTManager(cfg.JWT)
	extractor := pdftext.New(cfg.Extraction.MaxChars)

	userRepo := postgres.NewUserRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	recordRepo := postgres.NewRecordRepository(db)
	emergencyRepo := postgres.NewEmergencyRepository(db)

	auditSvc := service.NewAuditService(emergencyRepo, coll, log)

	svcs := v1.Services{
		Auth:     service.NewAuthService(userRepo, jwtManager, log),
		Patients: service.NewPatientService(patientRepo, coll, log),
		Doctors:  service.NewDoctorService(doctorRepo, log),
		Records:  service.NewRecordService(recordRepo, patientRepo, blobs, extractor, coll, log),
		Emergency: service.NewEmergencyService(
			patientRepo, recordRepo, emergencyRepo, emergencyRepo, auditSvc, coll, log,
		),
	}

	router := v1.NewRouter(cfg, svcs, jwtManager, extractor, coll, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}

	// Drain buffered audit entries before the process exits.
	auditSvc.Shutdown()

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Warn("closing database", zap.Error(err))
		}
	}

	log.Info("shutdown complete")
	return nil
}

func newBlobStore(cfg *config.Config, log *zap.Logger) (blobstore.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		log.Warn("using in-memory blob store; uploaded files will not survive restarts")
		return blobstore.NewMemoryStore(), nil
	case "s3":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ReadTimeout)
		defer cancel()
		return blobstore.NewS3Store(ctx, cfg.Storage)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
