package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domaincfg "canvas-engine/domain/config"
	"canvas-engine/engine/session"
	"canvas-engine/infrastructure/config"
	"canvas-engine/interfaces/http/rest/handlers"
	"canvas-engine/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	session   *session.Session
	cfg       *config.Config
	domainCfg *domaincfg.DomainConfig
	logger    *zap.Logger
	wsHandler http.Handler
}

// NewRouter creates a new router instance. wsHandler is mounted at /ws
// when non-nil.
func NewRouter(
	sess *session.Session,
	cfg *config.Config,
	domainCfg *domaincfg.DomainConfig,
	logger *zap.Logger,
	wsHandler http.Handler,
) *Router {
	return &Router{
		session:   sess,
		cfg:       cfg,
		domainCfg: domainCfg,
		logger:    logger,
		wsHandler: wsHandler,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.cfg.EnableMetrics {
		router.Handle("/metrics", promhttp.Handler())
	}

	if rt.wsHandler != nil {
		router.Handle("/ws", rt.wsHandler)
	}

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		// Node endpoints
		r.Route("/nodes", func(r chi.Router) {
			nodeHandler := handlers.NewNodeHandler(rt.session, rt.domainCfg, rt.logger)
			r.Get("/", nodeHandler.ListNodes)
			r.Post("/", nodeHandler.CreateNode)
			r.Get("/{nodeID}", nodeHandler.GetNode)
			r.Patch("/{nodeID}", nodeHandler.UpdateNode)
			r.Delete("/{nodeID}", nodeHandler.DeleteNode)
			r.Get("/{nodeID}/children", nodeHandler.ListChildren)
			r.Get("/{nodeID}/edges", nodeHandler.ListNodeEdges)
		})

		// Edge endpoints
		r.Route("/edges", func(r chi.Router) {
			edgeHandler := handlers.NewEdgeHandler(rt.session, rt.logger)
			r.Get("/", edgeHandler.ListEdges)
			r.Post("/", edgeHandler.CreateEdge)
			r.Get("/{edgeID}", edgeHandler.GetEdge)
			r.Patch("/{edgeID}", edgeHandler.UpdateEdge)
			r.Delete("/{edgeID}", edgeHandler.DeleteEdge)
		})

		// Document-level views
		r.Route("/document", func(r chi.Router) {
			documentHandler := handlers.NewDocumentHandler(rt.session, rt.logger)
			r.Get("/", documentHandler.GetDocument)
			r.Get("/outline", documentHandler.GetOutline)
			r.Post("/outline/reorder", documentHandler.ReorderOutline)
			r.Get("/frame", documentHandler.GetFrame)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
