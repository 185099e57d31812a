package server

import (
	"log/slog"
	"net/http"

	"planogram-dashboard/internal/config"
	"planogram-dashboard/internal/handlers"
	"planogram-dashboard/internal/middleware"
	"planogram-dashboard/internal/observability"
	"planogram-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Page and monitoring
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", observability.MetricsHandler())

	// REST API endpoints
	s.mux.HandleFunc("GET /api/stores", s.apiHandlers.HandleStores)
	s.mux.HandleFunc("GET /api/themes", s.apiHandlers.HandleThemes)
	s.mux.HandleFunc("GET /api/deployments", s.apiHandlers.HandleDeployments)
	s.mux.HandleFunc("GET /api/products", s.apiHandlers.HandleProducts)
	s.mux.HandleFunc("GET /api/metrics", s.apiHandlers.HandleMetrics)
	s.mux.HandleFunc("GET /api/dashboard", s.apiHandlers.HandleDashboard)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/options", s.sseHandlers.HandleOptions)
	s.mux.HandleFunc("GET /sse/dashboard", s.sseHandlers.HandleDashboard)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Stack is the middleware every request passes through, outermost first.
func Stack(cfg *config.Config, logger *slog.Logger) middleware.Middleware {
	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(middleware.NewRateLimiter(cfg.Security), logger),
		middleware.Metrics(),
	)
}
