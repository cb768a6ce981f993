// Package sender собирает приложение отправки уведомлений: подключается к
// RabbitMQ и отправляет чеки о покупках курсов на почту покупателей.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/arinakozh/course-sales/internal/config"
	"github.com/arinakozh/course-sales/internal/lib/smtp"
	"github.com/arinakozh/course-sales/internal/rabbitmq"
	senderservice "github.com/arinakozh/course-sales/internal/services/sender"
)

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	newTransport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.NewSenderService(logger, newTransport)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.Consume(ctx, a.logger, a.ch, "purchase.receipt", a.senderService.SendPurchaseReceipt)
	if err != nil {
		a.logger.Error("failed to start purchase.receipt consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
