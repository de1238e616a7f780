package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/models"
)

// RequireRole пропускает запрос дальше только для перечисленных ролей.
// Остальным возвращает 403 до выполнения каких-либо записей.
func RequireRole(log *slog.Logger, allowed ...models.Role) func(http.Handler) http.Handler {
	allowedSet := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireRole"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				log.Error("principal not found in context")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			if _, ok := allowedSet[principal.Role]; !ok {
				log.Error("access denied",
					slog.String("username", principal.Username),
					slog.String("role", string(principal.Role)))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("access denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
