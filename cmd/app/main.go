package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"wellbook/config"
	"wellbook/internal/bootstrap"
	"wellbook/internal/kafka"
	"wellbook/internal/repository"
	"wellbook/internal/service/payment"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Payment.SaltKey == "" {
		log.Fatal("payment.salt_key is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	paymentService := payment.NewService(
		bookingRepo,
		producer,
		cfg.Payment.SaltKey,
		cfg.Payment.SaltIndex,
		payment.WithPaymentEventsTopic(cfg.Kafka.PaymentEventsTopic),
		payment.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		payment.WithPendingTTL(time.Duration(cfg.Payment.PendingTTLMinutes)*time.Minute),
	)

	if err := bootstrap.Run(ctx, cfg, paymentService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
