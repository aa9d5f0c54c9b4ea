package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/printshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/respond"
	"github.com/MrSnakeDoc/printshare/internal/printsvc"
	"github.com/MrSnakeDoc/printshare/internal/version"
)

type statusResponse struct {
	printsvc.Status
	Version       string  `json:"version,omitempty"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

func Status(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, statusResponse{
			Status:        d.Service.Status(r.Context()),
			Version:       version.Version,
			UptimeSeconds: time.Since(start).Seconds(),
		})
	}
}
