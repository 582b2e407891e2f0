package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/workshop-scheduler/internal/application"
	"github.com/example/workshop-scheduler/internal/config"
	httptransport "github.com/example/workshop-scheduler/internal/http"
	"github.com/example/workshop-scheduler/internal/logging"
	"github.com/example/workshop-scheduler/internal/persistence"
	"github.com/example/workshop-scheduler/internal/persistence/memory"
	"github.com/example/workshop-scheduler/internal/persistence/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	var store persistence.SnapshotStore
	if cfg.Database.DSN == "" {
		store = memory.NewStore(persistence.Snapshot{})
		logger.Warn("no database DSN configured, state will not survive restarts")
	} else {
		db, err := sqlite.Open(cfg.Database.DSN)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.Error("failed to close database", "error", cerr)
			}
		}()
		store = db
	}

	state, err := application.LoadState(ctx, store)
	if err != nil {
		logger.Error("failed to load state", "error", err)
		os.Exit(1)
	}

	now := time.Now

	reservationService := application.NewReservationServiceWithLogger(state, now, cfg.Booking.MaintenanceBypassesEligibility, logger)
	maintenanceService := application.NewMaintenanceServiceWithLogger(state, reservationService, now, logger)
	facilityService := application.NewFacilityServiceWithLogger(state, now, logger)
	directoryService := application.NewDirectoryServiceWithLogger(state, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Reservations: httptransport.NewReservationHandler(reservationService, cfg.Booking.SlotStepMinutes, now, logger),
		Facility:     httptransport.NewFacilityHandler(facilityService, logger),
		Maintenance:  httptransport.NewMaintenanceHandler(maintenanceService, logger),
		Directory:    httptransport.NewDirectoryHandler(directoryService, now, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireMember(directoryService, logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("workshop API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
