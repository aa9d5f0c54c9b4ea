package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/printshare/internal/httpserver/deps"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/respond"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

func Printers(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		printers, err := d.Service.ListPrinters(r.Context())
		if err != nil {
			d.Logger.Warn("list printers failed", logger.Error(err))
			respond.Error(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, printers)
	}
}
