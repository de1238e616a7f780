package middlewarectx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/lexserve/lexserve-backend/internal/http/response"
	"github.com/lexserve/lexserve-backend/internal/lib/jwt"
	"github.com/lexserve/lexserve-backend/internal/lib/sl"
	"github.com/lexserve/lexserve-backend/internal/models"
)

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
//
// Если токен валиден, добавляет принципала в контекст запроса,
// иначе возвращает ошибку с HTTP статусом 401 Unauthorized.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			authHeader := r.Header.Get("Authorization")

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			role, err := models.ParseRole(claims.Role)
			if err != nil {
				log.Error("unknown role in token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{
				UserUID:  claims.UserUID,
				Username: claims.Username,
				Role:     role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJWTMiddleware разбирает токен, если он передан, но не требует его.
// Запрос без валидного токена продолжается от имени анонимного принципала.
// Используется realtime-каналом.
func OptionalJWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.OptionalJWTMiddleware"
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				authHeader = "Bearer " + r.URL.Query().Get("token")
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Warn("ignoring invalid token on optional route",
					slog.String("op", op), sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			role, err := models.ParseRole(claims.Role)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{
				UserUID:  claims.UserUID,
				Username: claims.Username,
				Role:     role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
