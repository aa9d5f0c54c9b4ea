package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/printshare/internal/domain"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/respond"
)

// NotFound answers unknown routes; it only runs once the guard has passed.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusNotFound, respond.ErrorBody{Kind: domain.KindRouteNotFound, Message: "no route for " + r.URL.Path})
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusMethodNotAllowed, respond.ErrorBody{Kind: domain.KindMethodNotAllowed, Message: r.Method + " not allowed on " + r.URL.Path})
}
