package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crossbag/backend/internal/cache"
	"github.com/crossbag/backend/internal/config"
	"github.com/crossbag/backend/internal/db"
	"github.com/crossbag/backend/internal/engine"
	"github.com/crossbag/backend/internal/kafka"
	"github.com/crossbag/backend/internal/logger"
	"github.com/crossbag/backend/internal/repository/postgresql"
	"github.com/crossbag/backend/internal/server"
)

const tripCacheTTL = 30 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New()
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	if err := db.Migrate(cfg.DSN()); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	database, err := db.NewDb(ctx, cfg.DSN())
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer database.GetPool().Close()

	redisClient, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	requestRepo := postgresql.NewRequestRepo(database)
	tripRepo := postgresql.NewTripRepo(database)
	matchRepo := postgresql.NewMatchRepo(database)
	ratingRepo := postgresql.NewRatingRepo(database)
	outboxRepo := postgresql.NewOutboxTaskRepo(cfg.OutboxMaxAttempts)

	tripCache := cache.NewTripCache(tripRepo, tripCacheTTL)
	reputation := cache.NewReputationCache(redisClient, ratingRepo, time.Hour)

	leadTime := engine.LeadTimeValidator{
		BaseDays:           cfg.BaseLeadDays,
		HighValueThreshold: cfg.HighValueThreshold,
		MultiItemThreshold: cfg.MultiItemThreshold,
	}
	scorer := engine.NewScorer(tripCache, reputation, leadTime, cfg.Weights, cfg.MaxRating, log)

	notifier := kafka.NewOutboxNotifier(outboxRepo, cfg.KafkaNotificationsTopic)

	lifecycle := engine.NewLifecycle(
		database,
		requestRepo,
		tripCache,
		matchRepo,
		ratingRepo,
		reputation,
		scorer,
		notifier,
		engine.LifecycleConfig{
			CooldownHours:       cfg.CooldownHours,
			PurchaseWindowHours: cfg.PurchaseWindowHours,
			ServiceFeePct:       cfg.ServiceFeePct,
			TaxPct:              cfg.TaxPct,
			DeliveryFeeFlat:     cfg.DeliveryFeeFlat,
			MinScore:            cfg.MinScore,
		},
		nil,
		log,
	)

	sweeper := engine.NewSweeper(
		database,
		requestRepo,
		matchRepo,
		notifier,
		cfg.CooldownSweepInterval,
		cfg.DeadlineSweepInterval,
		nil,
		log,
	)

	producer := kafka.NewWriterProducer(cfg.KafkaBrokers)
	publisher := kafka.NewPublisher(database, outboxRepo, producer, kafka.PublisherConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxAttempts:  cfg.OutboxMaxAttempts,
	}, log)

	srv := server.New(lifecycle, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.HTTPPort)
	})
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		publisher.Run(gctx)
		return nil
	})

	err = g.Wait()
	publisher.Shutdown()
	sweeper.Shutdown()
	if err != nil {
		log.Fatal("service exited with error", zap.Error(err))
	}
	log.Info("service stopped")
}
