package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	appconfig "github.com/AnthonyGillesRudolfo/pizza-delivery/internal/config"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/email"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/events"
)

const consumerGroup = "email-workers"

func main() {
	_ = godotenv.Load()
	logger := log.New(os.Stdout, "[email-worker] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := appconfig.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is not set")
	}
	sender, err := email.NewSender(cfg.Mail, logger)
	if err != nil {
		logger.Fatalf("mail provider: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader := events.NewReader(cfg.Kafka.Brokers, cfg.Kafka.UsersTopic, consumerGroup)
	defer reader.Close()

	if err := events.Consume(ctx, reader, cfg.Kafka.UsersTopic, consumerGroup, logger, welcomeHandler(sender, logger)); err != nil {
		logger.Fatalf("consumer stopped: %v", err)
	}
}

// welcomeHandler emails new users. Other event types are ignored.
func welcomeHandler(sender email.Sender, logger *log.Logger) events.Handler {
	return func(ctx context.Context, evt events.Envelope) error {
		if evt.EventType != events.UserCreated {
			return nil
		}
		data, _ := evt.Data.(map[string]any)
		to := toString(data["email"])
		if to == "" {
			to = evt.AggregateID
		}
		body, err := email.RenderWelcome(toString(data["firstName"]), toString(data["streetAddress"]))
		if err != nil {
			return err
		}
		if err := sender.Send(ctx, to, email.WelcomeSubject, body); err != nil {
			return fmt.Errorf("send welcome to %s: %w", to, err)
		}
		logger.Printf("sent welcome email to=%s", to)
		return nil
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
