package mw

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/printshare/internal/guard"
	"github.com/MrSnakeDoc/printshare/internal/httpserver/respond"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

// Guard rejects requests from non-local origins (403) and requests without
// the expected bearer token (401). It wraps every route, unknown ones included.
// trustProxy should only be true behind a reverse proxy on the same host.
func Guard(token string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	log.Debugf("Guard: initialized, trustProxy=%v", trustProxy)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := guard.Classify(guard.ClientAddr(r, trustProxy))
			authz := r.Header.Get("Authorization")

			d := guard.Authorize(origin, authz, token)
			if !d.Allowed {
				log.Warn("request rejected",
					logger.String("reason", string(d.Reason)),
					logger.String("origin", origin.Raw),
					logger.String("origin_class", origin.Class.String()),
					logger.Bool("token_present", authz != ""),
					logger.String("path", r.URL.Path),
					logger.String("request_id", middleware.GetReqID(r.Context())),
				)
				respond.Error(w, d.Err())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
