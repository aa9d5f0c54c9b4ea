package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/printshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/respond"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

// Enable turns sharing on. Name conflicts are reported in the body; the
// request still succeeds.
func Enable(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Service.EnableSharing(r.Context())
		if err != nil {
			d.Logger.Error("enable sharing failed", logger.Error(err))
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, res)
	}
}

func Disable(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Service.DisableSharing(r.Context())
		if err != nil {
			d.Logger.Error("disable sharing failed", logger.Error(err))
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, res)
	}
}
