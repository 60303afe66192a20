package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/config"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/db"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/httpapi"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/service"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store/memory"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store/remote"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store/sqlite"
	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/types"
)

const (
	keyVisitors     = "sigeco_visitors"
	keyAppointments = "sigeco_appointments"
	keyAccess       = "sigeco_access"
	keyAccessLogs   = "sigeco_access_logs"
)

func main() {
	// Local development convenience; an absent .env file is not an error.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "sigeco-server ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, cleanup, err := openSubstrate(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer cleanup()

	visitorCol := store.NewCollection[types.VisitorRecord](kv, keyVisitors, store.OldestFirst, 0, logger)
	apptCol := store.NewCollection[types.AppointmentRecord](kv, keyAppointments, store.OldestFirst, 0, logger)
	accessCol := store.NewCollection[types.AccessRecord](kv, keyAccess, store.NewestFirst, cfg.MaxAccessRecords, logger)
	logCol := store.NewCollection[types.AuditEntry](kv, keyAccessLogs, store.OldestFirst, cfg.MaxAuditLogs, logger)

	visitorSvc := service.NewVisitorService(ctx, visitorCol, logger)
	apptSvc := service.NewAppointmentService(ctx, apptCol, logger)
	accessSvc := service.NewAccessService(ctx, accessCol, logCol, logger)

	pruner := service.NewRetentionPruner(
		[]service.PruneTarget{
			{Name: "visitors", Prune: visitorSvc.PruneOlderThan},
			{Name: "access", Prune: accessSvc.ClearOldRecords},
		},
		service.PrunerConfig{
			RetentionDays: cfg.RetentionDays,
			IntervalHours: cfg.PruneIntervalHours,
		},
		logger,
	)
	pruner.Start(ctx)
	defer pruner.Stop()

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:       logger,
		Addr:         cfg.HTTPAddr,
		Visitors:     visitorSvc,
		Appointments: apptSvc,
		Access:       accessSvc,
	})

	go func() {
		logger.Printf("listening on %s (store=%s env=%s)", cfg.HTTPAddr, cfg.Store, cfg.Env)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// openSubstrate selects the document substrate from configuration. The
// returned cleanup closes whatever the substrate opened.
func openSubstrate(ctx context.Context, cfg config.Config, logger *log.Logger) (store.KV, func(), error) {
	switch cfg.Store {
	case "memory":
		return memory.New(), func() {}, nil

	case "remote":
		if cfg.RemoteURL == "" {
			logger.Printf("SIGECO_REMOTE_URL not set, falling back to in-memory store")
			return memory.New(), func() {}, nil
		}
		return remote.New(cfg.RemoteURL, nil), func() {}, nil

	default: // sqlite
		sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
		if err != nil {
			return nil, nil, err
		}

		if cfg.Env == "dev" {
			keys := []string{keyVisitors, keyAppointments, keyAccess, keyAccessLogs}
			if err := db.SeedDev(ctx, sqlDB, keys); err != nil {
				logger.Printf("dev seed: %v", err)
			}
		}

		writer := db.NewWorker(sqlDB)
		cleanup := func() {
			writer.Close()
			_ = sqlDB.Close()
		}
		return sqlite.New(sqlDB, writer), cleanup, nil
	}
}
