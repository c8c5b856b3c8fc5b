// Package main runs the CareQueue device core: offline queue durability,
// background sync against the hospital backend, and a localhost bridge
// (websocket events, metrics, health) for the embedding UI.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careq/queuecore/internal/api"
	"github.com/careq/queuecore/internal/auth"
	"github.com/careq/queuecore/internal/config"
	"github.com/careq/queuecore/internal/db"
	"github.com/careq/queuecore/internal/logging"
	"github.com/careq/queuecore/internal/metrics"
	"github.com/careq/queuecore/internal/notify"
	"github.com/careq/queuecore/internal/storage"
	queuesync "github.com/careq/queuecore/internal/sync"
	"github.com/careq/queuecore/internal/sync/scheduler"
	"go.uber.org/zap"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet.
		panic(err)
	}

	if err := logging.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		panic(err)
	}
	defer logging.Sync()

	logging.Info("carequeue core starting", zap.String("version", Version))

	database, err := db.Open(cfg.Data.Dir)
	if err != nil {
		logging.Error("failed to open database", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close()

	migrator := db.NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		logging.Error("failed to initialize migrations", zap.Error(err))
		os.Exit(1)
	}
	if err := migrator.Up(); err != nil {
		logging.Error("failed to apply migrations", zap.Error(err))
		os.Exit(1)
	}

	store := storage.NewSQLiteStore(database.DB)

	deviceKey, err := auth.LoadDeviceKey(cfg.Data.Dir)
	if err != nil {
		logging.Error("failed to load device key", zap.Error(err))
		os.Exit(1)
	}
	cipher, err := auth.NewCipher(deviceKey)
	if err != nil {
		logging.Error("failed to initialize cipher", zap.Error(err))
		os.Exit(1)
	}
	sessions := auth.NewManager(store, cipher)

	hub := notify.NewHub()
	notifier := notify.Multi{notify.LogEmitter{}, hub}

	var authService *auth.Service
	client := api.NewClient(cfg.Backend.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.Backend.RequestTimeout}),
		api.WithTokenSource(sessions),
		api.WithUnauthorizedHandler(func(ctx context.Context) {
			authService.HandleUnauthorized(ctx)
		}),
	)
	authService = auth.NewService(client, sessions, notifier)

	probe := queuesync.NewHealthProbe(client, 3*time.Second)
	synchronizer := queuesync.New(store, client, notifier, probe, queuesync.SystemClock(), queuesync.Config{
		CoolDown:       cfg.Sync.CoolDown,
		RetryCeiling:   cfg.Sync.RetryCeiling,
		AttemptTimeout: cfg.Sync.AttemptTimeout,
	})

	sched := scheduler.New(synchronizer, probe, scheduler.Config{
		SyncInterval:  cfg.Sync.Interval,
		ProbeInterval: cfg.Sync.ProbeInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.Start(ctx)
	defer sched.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{Addr: cfg.Server.ListenAddr, Handler: mux}
	go func() {
		logging.Info("ui bridge listening", zap.String("addr", cfg.Server.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("ui bridge server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logging.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("ui bridge shutdown failed", zap.Error(err))
	}
}
