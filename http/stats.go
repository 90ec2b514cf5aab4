package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"greenmag/auth"
	"greenmag/errs"
)

func (s *Server) registerStatsRoutes(r *mux.Router) {
	r.HandleFunc("/dashboard/stats", s.requireAuth(s.handleDashboardStats)).Methods("GET")
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ss.Dashboard(r.Context(), auth.GetIdentity(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, stats)
}
