package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/printshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/handlers"
)

func init() { Register(registerPrinters) }

func registerPrinters(r chi.Router, d deps.Deps) {
	r.Get("/printers", handlers.Printers(d))
	r.Get("/discover", handlers.Discover(d))
}
