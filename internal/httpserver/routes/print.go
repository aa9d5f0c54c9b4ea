package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/printshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/handlers"
)

// Only /print carries a body, so the size cap is applied here.
func init() { Register(registerPrint) }

func registerPrint(r chi.Router, d deps.Deps) {
	r.With(middleware.RequestSize(d.MaxBodyBytes)).Post("/print", handlers.Print(d))
}
