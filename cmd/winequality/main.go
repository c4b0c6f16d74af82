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

	"wine-classifier/internal/cfg"
	"wine-classifier/internal/logging"
	"wine-classifier/internal/metrics"
	"wine-classifier/internal/ml"
	"wine-classifier/internal/storage"
	"wine-classifier/internal/web"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	logCloser, err := logging.Setup(logging.Options{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		File:   c.LogFile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("logger setup failed")
	}
	defer logCloser.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	// The classifier never fails to construct; a missing or broken model
	// leaves it unavailable and the page shows the load error instead.
	classifier := ml.NewClassifier(ml.ClassifierConfig{
		ModelPath:       c.ModelPath,
		ONNXLibraryPath: c.ONNXLibraryPath,
		CacheSize:       c.CacheSize,
	}, mw)
	defer classifier.Close()

	store := initializeStorage(c)
	var history web.HistoryStore
	if store != nil {
		defer store.Close()
		history = store
	}

	startMetricsServer(ctx, c, classifier)

	server := web.NewServer(web.Config{
		Port:           c.HTTPPort,
		ReadTimeout:    c.ReadTimeout,
		WriteTimeout:   c.WriteTimeout,
		RequestTimeout: c.RequestTimeout,
		AllowedOrigins: c.AllowedOrigins,
		HistoryLimit:   c.HistoryLimit,
	}, classifier, history, mw)
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("web server start failed")
	}

	log.Info().
		Int("port", c.HTTPPort).
		Int("metrics_port", c.MetricsPort).
		Bool("model_loaded", classifier.Available()).
		Bool("history", store != nil).
		Msg("wine classifier ready")

	waitForShutdown(ctx, cancel, server)
}

// initializeStorage opens the history store if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if !c.HistoryEnabled() {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without history")
		return nil
	}
	return store
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, c cfg.Settings, classifier *ml.Classifier) {
	go func() {
		mux := http.NewServeMux()

		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if !classifier.Available() {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("MODEL UNAVAILABLE"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		mux.Handle("/metrics", promhttp.Handler())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", c.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			<-ctx.Done()
			if err := server.Shutdown(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to shutdown metrics server")
			}
		}()

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

// waitForShutdown blocks until a signal arrives, then stops the web server
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, server *web.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("web server shutdown incomplete")
	}
}
