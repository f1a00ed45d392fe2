package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"hl-ledger/internal/config"
	"hl-ledger/internal/indexer"
)

// Server is the HTTP surface over an Indexer: health, trades, pnl, and
// leaderboard.
type Server struct {
	cfg        *config.Config
	indexer    *indexer.Indexer
	httpServer *http.Server
}

// NewServer builds a Server bound to cfg.Host:cfg.Port, routing through idx.
func NewServer(cfg *config.Config, idx *indexer.Indexer) *Server {
	s := &Server{cfg: cfg, indexer: idx}

	r := mux.NewRouter()
	r.Use(commonMiddleware)
	r.Use(rateLimitMiddleware)
	registerRoutes(r, s)

	s.httpServer = &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: r,
	}
	return s
}

// Start serves until the process is signaled to stop. It returns
// http.ErrServerClosed after a graceful Shutdown, which callers should
// treat as a normal exit rather than a failure.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests before returning.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func commonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
