package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/printshare/internal/httpserver/deps"
)

func Metrics(d deps.Deps) http.Handler {
	if d.Metrics == nil {
		return http.NotFoundHandler()
	}
	return d.Metrics.Handler()
}
