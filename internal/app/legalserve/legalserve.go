// Package legalserve собирает HTTP-приложение: хранилище, кеш, внешние
// клиенты, сервисы и маршруты.
package legalserve

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/lexserve/lexserve-backend/internal/cac"
	"github.com/lexserve/lexserve-backend/internal/cache"
	"github.com/lexserve/lexserve-backend/internal/config"
	"github.com/lexserve/lexserve-backend/internal/lib/jwt"
	"github.com/lexserve/lexserve-backend/internal/lib/rabbitmq"
	"github.com/lexserve/lexserve-backend/internal/migrations"
	"github.com/lexserve/lexserve-backend/internal/openai"
	authservice "github.com/lexserve/lexserve-backend/internal/services/auth"
	chatservice "github.com/lexserve/lexserve-backend/internal/services/chat"
	consultationservice "github.com/lexserve/lexserve-backend/internal/services/consultation"
	documentservice "github.com/lexserve/lexserve-backend/internal/services/document"
	paymentservice "github.com/lexserve/lexserve-backend/internal/services/payment"
	servicerequestservice "github.com/lexserve/lexserve-backend/internal/services/servicerequest"
	subscriptionservice "github.com/lexserve/lexserve-backend/internal/services/subscription"
	"github.com/lexserve/lexserve-backend/internal/storage"
	"github.com/lexserve/lexserve-backend/internal/vpay"
)

// Параметры подключения к брокеру уведомлений.
const (
	rabbitMaxRetries = 5
	rabbitRetryDelay = 2 * time.Second
)

// App — HTTP-приложение со всеми зависимостями.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *storage.Storage
	rabbitConn *amqp.Connection
	rabbitCh   *amqp.Channel
}

// New инициализирует зависимости и собирает приложение.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitURL, rabbitMaxRetries, rabbitRetryDelay)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn, cfg.RabbitExchange, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = rabbitConn.Close()
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(rabbitCh, cfg.RabbitExchange)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	vpayClient := vpay.NewClient(cfg.VPay)
	openaiClient := openai.NewClient(cfg.OpenAI)
	cacClient := cac.NewClient(cfg.CAC)

	authService := authservice.NewAuthService(db, jwtMaker)
	subscriptionService := subscriptionservice.New(db, cacheRedis, logger)
	consultationService := consultationservice.New(db, cacheRedis, subscriptionService, logger)
	paymentService := paymentservice.New(vpayClient, db, publisher, cacheRedis, logger)
	requestService := servicerequestservice.New(db, publisher, logger)
	documentService := documentservice.New(openaiClient, db, logger)
	chatService := chatservice.New(openaiClient, db, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, &Services{
		Auth:         authService,
		Consultation: consultationService,
		Payment:      paymentService,
		Subscription: subscriptionService,
		Request:      requestService,
		Document:     documentService,
		Chat:         chatService,
		Registry:     cacClient,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
		rabbitCh:   rabbitCh,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.rabbitCh.Close(); closeErr != nil {
			a.logger.Error("failed to close rabbit channel", slog.Any("err", closeErr))
		}
		if closeErr := a.rabbitConn.Close(); closeErr != nil {
			a.logger.Error("failed to close rabbit connection", slog.Any("err", closeErr))
		}
		_ = a.db.DB.Close()
		return err
	}
}
