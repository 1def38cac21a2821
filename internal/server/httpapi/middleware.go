package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/dmitrijs2005/gophcrud/internal/server/auth"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs one line per request through the structured logger.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Info(r.Context(), "http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// authenticate resolves the bearer token into the current user and rejects
// inactive accounts. The user is available through auth.UserFromContext.
func authenticate(resolver PrincipalResolver, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.BearerToken(r.Header.Get(common.AuthorizationHeaderName))
			if !ok {
				writeDetail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				log.Debug(r.Context(), "bearer token rejected", "error", err)
				writeError(w, r, log, err)
				return
			}
			if err := auth.RequireActive(user); err != nil {
				writeError(w, r, log, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

// requireSuperuser must run after authenticate.
func requireSuperuser(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.RequireSuperuser(currentUser(r)); err != nil {
				writeError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// currentUser returns the user set by authenticate. Routes using it are
// always mounted behind that middleware.
func currentUser(r *http.Request) *models.User {
	u, _ := auth.UserFromContext(r.Context())
	return u
}
