package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FlowTagger/internal/api"
	"FlowTagger/internal/config"
	"FlowTagger/internal/engine/impl/report"
	"FlowTagger/internal/logging"
	"FlowTagger/internal/query"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}

	// Find the first enabled ClickHouse writer config
	writerDef, ok := cfg.FindWriter(report.TypeClickHouse)
	if !ok {
		log.Fatal("No enabled ClickHouse writer found in config. API server cannot start.")
	}

	// Initialize querier with the found config
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	querier, err := query.NewClickHouseQuerier(ctx, writerDef.ClickHouse)
	cancel()
	if err != nil {
		log.Fatalf("Failed to create querier: %v", err)
	}

	listenAddr := cfg.API.ListenAddr
	if listenAddr == "" {
		listenAddr = ":8080"
	}
	server := &http.Server{
		Addr:              listenAddr,
		Handler:           api.NewRouter(querier, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("API server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("API server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Info("API server exited.")
}
