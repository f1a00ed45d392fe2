package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hl-ledger/internal/api"
	"hl-ledger/internal/config"
	"hl-ledger/internal/indexer"
)

func main() {
	cfg := config.Load()

	log.Printf("starting hl-ledger on %s:%s (network=%s, fill_source=%v)", cfg.Host, cfg.Port, cfg.Network, cfg.FillSource)

	idx := indexer.New(cfg)
	if cfg.Competition.TargetBuilder != "" {
		if err := idx.RefreshBuilderEnrichment(nil, nil); err != nil {
			log.Printf("initial builder enrichment load failed, continuing without it: %v", err)
		}
	}

	server := api.NewServer(cfg, idx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("listening on %s:%s", cfg.Host, cfg.Port)
		log.Println("endpoints:")
		log.Println("  GET /health         - health check")
		log.Println("  GET /v1/trades      - fetch user trades")
		log.Println("  GET /v1/pnl         - calculate user pnl")
		log.Println("  GET /v1/leaderboard - competition leaderboard")
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-sigChan
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	idx.StopCollecting()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}
