package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"tech-insights/internal/config"
	"tech-insights/internal/errors"
	"tech-insights/internal/handlers"
	"tech-insights/internal/middleware"
	"tech-insights/internal/observability"
	"tech-insights/internal/services"
)

// Dependencies are the long-lived services the routes are built on.
type Dependencies struct {
	Config    *config.Config
	Analytics *services.Analytics
	Inventory *services.Inventory
	Orders    *services.OrderBook
	Metrics   *observability.Metrics
	Tracer    trace.Tracer
	Logger    *slog.Logger
}

type Server struct {
	router       chi.Router
	logger       *slog.Logger
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
	fileHandlers *handlers.FileHandlers
}

func NewServer(deps Dependencies) *Server {
	defaults := deps.Config.Data.DefaultStates

	s := &Server{
		router:       chi.NewRouter(),
		logger:       deps.Logger,
		apiHandlers:  handlers.NewAPIHandlers(deps.Analytics, deps.Inventory, deps.Logger),
		sseHandlers:  handlers.NewSSEHandlers(deps.Analytics, deps.Inventory, deps.Orders, deps.Metrics, deps.Logger),
		pageHandlers: handlers.NewPageHandlers(deps.Analytics, deps.Inventory, defaults, deps.Logger),
		fileHandlers: handlers.NewFileHandlers(deps.Analytics, deps.Inventory, deps.Orders, deps.Logger),
	}
	s.setupMiddleware(deps)
	s.setupRoutes(deps)
	return s
}

func (s *Server) setupMiddleware(deps Dependencies) {
	security := deps.Config.Security

	s.router.Use(
		middleware.Recovery(deps.Logger),
		middleware.RequestID(),
		middleware.Logger(deps.Logger),
		middleware.Tracing(deps.Tracer),
		middleware.Metrics(deps.Metrics),
		middleware.SecurityHeaders(),
		middleware.CORS(security),
		middleware.TrustedProxy(security),
		middleware.RateLimit(middleware.NewRateLimiter(security), deps.Logger),
	)
}

func (s *Server) setupRoutes(deps Dependencies) {
	r := s.router

	// Pages
	r.Get("/", s.pageHandlers.HandleDashboard)
	r.Get("/inventory", s.pageHandlers.HandleInventory)

	// Ops
	r.Get("/health", s.apiHandlers.HandleHealth)
	r.Get("/admin/stats", s.apiHandlers.HandleStats)
	if deps.Config.Telemetry.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// REST API endpoints
	r.Route("/api", func(r chi.Router) {
		r.Get("/states", s.apiHandlers.HandleStates)
		r.Get("/categories", s.apiHandlers.HandleCategories)
		r.Get("/summary", s.apiHandlers.HandleSummary)
		r.Get("/revenue-by-type", s.apiHandlers.HandleRevenueByType)
		r.Get("/monthly-sales", s.apiHandlers.HandleMonthlySales)
		r.Get("/top-categories", s.apiHandlers.HandleTopCategories)
		r.Get("/risk-matrix", s.apiHandlers.HandleRiskMatrix)
		r.Get("/recency-histogram", s.apiHandlers.HandleRecencyHistogram)
		r.Get("/inventory", s.apiHandlers.HandleInventory)
	})

	// Datastar SSE endpoints
	r.Get("/sse/dashboard", s.sseHandlers.HandleDashboard)
	r.Post("/sse/restock", s.sseHandlers.HandleRestock)

	// Downloads
	r.Get("/charts/{name}.png", s.fileHandlers.HandleChartPNG)
	r.Get("/export/dashboard.xlsx", s.fileHandlers.HandleDashboardExport)
	r.Get("/inventory/orders/{id}.xlsx", s.fileHandlers.HandleRestockExport)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, r, s.logger, errors.NotFound("Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		appErr := errors.BadRequest("Method not allowed")
		appErr.StatusCode = http.StatusMethodNotAllowed
		errors.WriteError(w, r, s.logger, appErr)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
