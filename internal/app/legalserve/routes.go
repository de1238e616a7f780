// Package legalserve предоставляет маршруты основного приложения.
package legalserve

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/lexserve/lexserve-backend/internal/cac"
	"github.com/lexserve/lexserve-backend/internal/http/handlers/auth/login"
	"github.com/lexserve/lexserve-backend/internal/http/handlers/auth/register"
	chatask "github.com/lexserve/lexserve-backend/internal/http/handlers/chat/ask"
	chatstream "github.com/lexserve/lexserve-backend/internal/http/handlers/chat/stream"
	consultationbook "github.com/lexserve/lexserve-backend/internal/http/handlers/consultation/book"
	consultationcancel "github.com/lexserve/lexserve-backend/internal/http/handlers/consultation/cancel"
	consultationlist "github.com/lexserve/lexserve-backend/internal/http/handlers/consultation/list"
	consultationlistall "github.com/lexserve/lexserve-backend/internal/http/handlers/consultation/listall"
	consultationread "github.com/lexserve/lexserve-backend/internal/http/handlers/consultation/read"
	documentanalyze "github.com/lexserve/lexserve-backend/internal/http/handlers/document/analyze"
	documentimprove "github.com/lexserve/lexserve-backend/internal/http/handlers/document/improve"
	documentlist "github.com/lexserve/lexserve-backend/internal/http/handlers/document/list"
	documentread "github.com/lexserve/lexserve-backend/internal/http/handlers/document/read"
	paymentlist "github.com/lexserve/lexserve-backend/internal/http/handlers/payment/list"
	paymentverify "github.com/lexserve/lexserve-backend/internal/http/handlers/payment/verify"
	registrycheck "github.com/lexserve/lexserve-backend/internal/http/handlers/registry/check"
	requestaddnote "github.com/lexserve/lexserve-backend/internal/http/handlers/servicerequest/addnote"
	requestlist "github.com/lexserve/lexserve-backend/internal/http/handlers/servicerequest/list"
	requestlistall "github.com/lexserve/lexserve-backend/internal/http/handlers/servicerequest/listall"
	requestread "github.com/lexserve/lexserve-backend/internal/http/handlers/servicerequest/read"
	requestsubmit "github.com/lexserve/lexserve-backend/internal/http/handlers/servicerequest/submit"
	requestupdatestatus "github.com/lexserve/lexserve-backend/internal/http/handlers/servicerequest/updatestatus"
	subscriptioncancel "github.com/lexserve/lexserve-backend/internal/http/handlers/subscription/cancel"
	subscriptioncreate "github.com/lexserve/lexserve-backend/internal/http/handlers/subscription/create"
	subscriptionplans "github.com/lexserve/lexserve-backend/internal/http/handlers/subscription/plans"
	subscriptionstatus "github.com/lexserve/lexserve-backend/internal/http/handlers/subscription/status"
	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/lib/jwt"
	"github.com/lexserve/lexserve-backend/internal/models"
	authservice "github.com/lexserve/lexserve-backend/internal/services/auth"
	chatservice "github.com/lexserve/lexserve-backend/internal/services/chat"
	consultationservice "github.com/lexserve/lexserve-backend/internal/services/consultation"
	documentservice "github.com/lexserve/lexserve-backend/internal/services/document"
	paymentservice "github.com/lexserve/lexserve-backend/internal/services/payment"
	servicerequestservice "github.com/lexserve/lexserve-backend/internal/services/servicerequest"
	subscriptionservice "github.com/lexserve/lexserve-backend/internal/services/subscription"
)

// Services — сервисы, которые обслуживают маршруты приложения.
type Services struct {
	Auth         *authservice.AuthService
	Consultation *consultationservice.Service
	Payment      *paymentservice.Service
	Subscription *subscriptionservice.Service
	Request      *servicerequestservice.Service
	Document     *documentservice.Service
	Chat         *chatservice.Service
	Registry     *cac.Client
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)
		r.Get("/subscriptions/plans", subscriptionplans.New(logger, s.Subscription).ServeHTTP)

		// SSE-канал: токен необязателен, без него работает анонимно
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.OptionalJWTMiddleware(jwtMaker, logger))
			r.Get("/chat/stream", chatstream.New(logger, s.Chat).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/consultations", consultationbook.New(logger, s.Consultation).ServeHTTP)
			r.Get("/consultations", consultationlist.New(logger, s.Consultation).ServeHTTP)
			r.Get("/consultations/{id}", consultationread.New(logger, s.Consultation).ServeHTTP)
			r.Delete("/consultations/{id}", consultationcancel.New(logger, s.Consultation).ServeHTTP)

			r.Post("/payments/verify", paymentverify.New(logger, s.Payment).ServeHTTP)
			r.Get("/payments", paymentlist.New(logger, s.Payment).ServeHTTP)

			r.Post("/subscriptions", subscriptioncreate.New(logger, s.Subscription).ServeHTTP)
			r.Get("/subscriptions/status", subscriptionstatus.New(logger, s.Subscription).ServeHTTP)
			r.Delete("/subscriptions", subscriptioncancel.New(logger, s.Subscription).ServeHTTP)

			r.Post("/requests", requestsubmit.New(logger, s.Request).ServeHTTP)
			r.Get("/requests", requestlist.New(logger, s.Request).ServeHTTP)
			r.Get("/requests/{reference}", requestread.New(logger, s.Request).ServeHTTP)

			r.Post("/documents/analyze", documentanalyze.New(logger, s.Document).ServeHTTP)
			r.Post("/documents/improve", documentimprove.New(logger, s.Document).ServeHTTP)
			r.Get("/documents", documentlist.New(logger, s.Document).ServeHTTP)
			r.Get("/documents/{id}", documentread.New(logger, s.Document).ServeHTTP)

			r.Post("/chat", chatask.New(logger, s.Chat).ServeHTTP)

			// Проверка реестра: доступна сотрудникам и администраторам
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger,
					models.RoleStaff, models.RoleAdmin, models.RoleSuperAdmin))
				r.Post("/registry/check", registrycheck.New(logger, s.Registry).ServeHTTP)
			})

			// Административный интерфейс
			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger,
					models.RoleAdmin, models.RoleSuperAdmin))
				r.Get("/consultations", consultationlistall.New(logger, s.Consultation).ServeHTTP)
				r.Get("/requests", requestlistall.New(logger, s.Request).ServeHTTP)
				r.Patch("/requests/{reference}/status", requestupdatestatus.New(logger, s.Request).ServeHTTP)
				r.Post("/requests/{reference}/notes", requestaddnote.New(logger, s.Request).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
