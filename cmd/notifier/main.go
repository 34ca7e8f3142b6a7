package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"slotgate/internal/notify"
	"slotgate/pkg/config"
	"slotgate/pkg/kafka"
	kafka_config "slotgate/pkg/kafka/config"
)

const ServiceName = "notifier"

// The notifier drains the notifications topic and hands each message to the
// configured delivery transport. It is the only consumer of the topic, so a
// crashed instance resumes from the committed offset and nothing is lost.
func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting notifier service")

	messenger := notify.NewLogMessenger(cfg.Log)

	handler := func(ctx context.Context, msg kafka.Message) error {
		var notification notify.Notification
		if err := msg.DecodeValue(&notification); err != nil {
			cfg.Log.Error("Dropping undecodable notification",
				"event_id", msg.GetEventID(),
				"error", err,
			)
			return nil
		}
		return messenger.Deliver(ctx, notification)
	}

	kafkaCfg := kafka_config.Load()
	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.NotificationsTopic, cfg.NotifierGroupID, handler)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Consuming notifications",
		"topic", cfg.NotificationsTopic,
		"group_id", cfg.NotifierGroupID,
	)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}

	cfg.Log.Info("Notifier stopped")
}
