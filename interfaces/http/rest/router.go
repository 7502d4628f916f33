package rest

import (
	"net/http"

	"bettersaved/interfaces/http/rest/handlers"
	"bettersaved/interfaces/http/rest/middleware"
	"bettersaved/pkg/auth"
	pkgerrors "bettersaved/pkg/errors"
	"bettersaved/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router
type Router struct {
	webhook   *handlers.WebhookHandler
	profiles  *handlers.ProfileHandler
	tokens    middleware.TokenValidator
	limiter   auth.RateLimiter
	collector *observability.Collector
	tracer    *observability.Tracer
	errs      *pkgerrors.ErrorHandler
	cors      bool
	logger    *zap.Logger
}

// RouterOptions carries the optional parts of the router
type RouterOptions struct {
	// Tokens enables the operator API when set
	Tokens    middleware.TokenValidator
	Limiter   auth.RateLimiter
	Collector *observability.Collector
	Tracer    *observability.Tracer
	CORS      bool
}

// NewRouter creates a new router instance
func NewRouter(
	webhook *handlers.WebhookHandler,
	profiles *handlers.ProfileHandler,
	errs *pkgerrors.ErrorHandler,
	opts RouterOptions,
	logger *zap.Logger,
) *Router {
	return &Router{
		webhook:   webhook,
		profiles:  profiles,
		tokens:    opts.Tokens,
		limiter:   opts.Limiter,
		collector: opts.Collector,
		tracer:    opts.Tracer,
		errs:      errs,
		cors:      opts.CORS,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.tracer.Enabled() {
		router.Use(rt.tracer.Middleware)
	}
	if rt.collector != nil {
		router.Use(middleware.Metrics(rt.collector))
	}
	if rt.cors {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"https://*", "http://localhost:*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	router.Post("/webhook/telegram", rt.webhook.Receive)

	if rt.tokens != nil {
		router.Route("/api/v1", func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.tokens, rt.limiter, rt.errs, rt.logger))
			r.Use(middleware.RequireRole(rt.errs, auth.RoleAdmin))

			r.Route("/profiles/{userID}", func(r chi.Router) {
				r.Get("/", rt.profiles.GetProfile)
				r.Delete("/", rt.profiles.DeleteProfile)
				r.Put("/credential", rt.profiles.ConnectStorage)
				r.Delete("/credential", rt.profiles.DisconnectStorage)
				r.Post("/repair", rt.profiles.RepairResources)
			})
		})
	}

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
