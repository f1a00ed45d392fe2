package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func registerRoutes(r *mux.Router, s *Server) {
	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/trades", s.handleTrades).Methods(http.MethodGet)
	r.HandleFunc("/v1/pnl", s.handlePnL).Methods(http.MethodGet)
	r.HandleFunc("/v1/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
}
