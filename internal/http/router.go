package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"qwen-gateway/internal/gateway"
	"qwen-gateway/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Service gateway.Service
	// History serves /api/executions. Nil disables those routes.
	History handlers.ResultReader
	// HistoryPinger backs the health check. Nil reports history as disabled.
	HistoryPinger      handlers.Pinger
	CredentialsPresent bool
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	executeHandler := handlers.NewExecuteHandler(deps.Service)
	modelsHandler := handlers.NewModelsHandler(deps.Service)
	healthHandler := handlers.NewHealthHandler(deps.HistoryPinger, deps.CredentialsPresent)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Get("/categories", handlers.Categories)
		r.Method(http.MethodGet, "/models", modelsHandler)
		r.Method(http.MethodPost, "/execute", executeHandler)

		if deps.History != nil {
			historyHandler := handlers.NewHistoryHandler(deps.History)
			r.Get("/executions", historyHandler.ListRecent)
			r.Get("/executions/{id}", historyHandler.GetExecution)
		}
	})

	return r
}
