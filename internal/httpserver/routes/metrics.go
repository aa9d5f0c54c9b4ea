package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/printshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/handlers"
)

func init() { Register(registerMetrics) }

func registerMetrics(r chi.Router, d deps.Deps) {
	r.Method("GET", "/metrics", handlers.Metrics(d))
}
