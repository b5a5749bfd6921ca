package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/crossbag/backend/internal/config"
	"github.com/crossbag/backend/internal/logger"
	"github.com/crossbag/backend/internal/repository"
)

const groupID = "notifications-consumer-group"

// Development consumer: tails the notifications topic and logs every event.
// Real delivery channels (push/email/SMS) subscribe to the same topic.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New()
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        groupID,
		Topic:          cfg.KafkaNotificationsTopic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Error("failed to close kafka reader", zap.Error(err))
		}
	}()

	log.Info("consumer connected",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaNotificationsTopic))

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("shutdown signal received, stopping consumer")
				return
			}
			log.Error("failed to read message", zap.Error(err))
			time.Sleep(5 * time.Second)
			continue
		}

		var payload repository.NotificationPayload
		if err := json.Unmarshal(m.Value, &payload); err != nil {
			log.Warn("skipping malformed notification",
				zap.Int64("offset", m.Offset),
				zap.Error(err))
			continue
		}

		log.Info("notification",
			zap.Time("ts", payload.Timestamp),
			zap.String("user_id", payload.UserID),
			zap.String("template", payload.Template),
			zap.String("match_id", payload.MatchID),
			zap.String("request_id", payload.RequestID),
			zap.String("trip_id", payload.TripID),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset))
	}
}
