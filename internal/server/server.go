package server

import (
	"log/slog"
	"net/http"

	"sales-dashboard/internal/handlers"
	"sales-dashboard/internal/services"
)

type Server struct {
	reporting   *services.Reporting
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

func NewServer(reporting *services.Reporting, logger *slog.Logger, dashboard http.HandlerFunc) *Server {
	s := &Server{
		reporting:   reporting,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(reporting, logger),
		sseHandlers: handlers.NewSSEHandlers(reporting, logger),
	}
	s.setupRoutes(dashboard)
	return s
}

func (s *Server) setupRoutes(dashboard http.HandlerFunc) {
	s.mux.HandleFunc("GET /", dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints; filter selection arrives as query parameters.
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilterOptions)
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/sales-by-hour", s.apiHandlers.HandleSalesByHour)
	s.mux.HandleFunc("GET /api/sales-by-product-line", s.apiHandlers.HandleSalesByProductLine)

	// Datastar SSE endpoint: one full recompute per filter interaction.
	s.mux.HandleFunc("GET /sse/dashboard", s.sseHandlers.HandleDashboard)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
