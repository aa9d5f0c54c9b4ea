package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/printshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/handlers"
)

func init() { Register(registerSharing) }

func registerSharing(r chi.Router, d deps.Deps) {
	r.Post("/enable", handlers.Enable(d))
	r.Post("/disable", handlers.Disable(d))
}
