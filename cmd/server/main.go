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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ratewave/featuregate/internal/api"
	"github.com/ratewave/featuregate/internal/audit"
	"github.com/ratewave/featuregate/internal/config"
	"github.com/ratewave/featuregate/internal/engine"
	"github.com/ratewave/featuregate/internal/logging"
	"github.com/ratewave/featuregate/internal/source"
	"github.com/ratewave/featuregate/internal/store"
	"github.com/ratewave/featuregate/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logging.New(cfg.LogLevel)
	ctx := context.Background()

	kv, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() { _ = kv.Close() }()

	// initial snapshot
	doc, err := source.LoadFile(cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config document: %w", err)
	}
	snap, err := source.Publish(doc)
	if err != nil {
		return fmt.Errorf("publish config document: %w", err)
	}
	log.Info("config document published",
		"path", cfg.ConfigPath, "features", len(doc.Features), "etag", snap.ETag)

	telemetry.Init()
	telemetry.SnapshotFeatures.Set(float64(len(doc.Features)))

	stop := make(chan struct{})
	if cfg.WatchConfig {
		if err := source.Watch(cfg.ConfigPath, log, stop); err != nil {
			return fmt.Errorf("watch config document: %w", err)
		}
		log.Info("watching config document for changes", "path", cfg.ConfigPath)
	}

	ring := audit.NewRing(cfg.DecisionLogSize)
	recorder := audit.NewRecorder(ring, audit.NewSlogSink(log))
	eng := engine.New(log, recorder, telemetry.Decisions{})

	srvAPI := api.NewServer(eng, kv, ring, cfg.AdminAPIKey, cfg.RolloutSalt, log)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		log.Info("metrics listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	close(stop)

	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	log.Info("stopped")
	return nil
}
