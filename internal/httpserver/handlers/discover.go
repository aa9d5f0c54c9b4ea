package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/printshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/respond"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

// Discover lists printers shared by other hosts on the segment.
func Discover(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found, err := d.Service.Discover(r.Context())
		if err != nil {
			d.Logger.Warn("discovery failed", logger.Error(err))
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, found)
	}
}
