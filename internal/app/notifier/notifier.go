// Package notifier собирает процесс отправки уведомлений: потребители
// очередей RabbitMQ и SMTP-транспорт.
package notifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/lexserve/lexserve-backend/internal/config"
	"github.com/lexserve/lexserve-backend/internal/lib/rabbitmq"
	"github.com/lexserve/lexserve-backend/internal/lib/smtp"
	senderservice "github.com/lexserve/lexserve-backend/internal/services/sender"
)

const (
	rabbitMaxRetries = 5
	rabbitRetryDelay = 2 * time.Second
)

// App — процесс уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New инициализирует подключение к брокеру и SMTP-транспорт.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitURL, rabbitMaxRetries, rabbitRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitExchange, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей очередей и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	handlers := map[string]func([]byte) error{
		"notification.receipt":        a.senderService.SendReceipt,
		"notification.request-status": a.senderService.SendRequestStatus,
	}
	for queueName, handler := range handlers {
		if err := rabbitmq.ConsumerMessage(ctx, a.ch, queueName, handler); err != nil {
			a.logger.Error("failed to start consumer",
				slog.String("queue", queueName), slog.Any("err", err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
