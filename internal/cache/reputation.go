package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crossbag/backend/internal/repository"
)

// unratedMarker is cached for travelers with no rating yet so a miss does
// not hit Postgres on every scoring pass.
const unratedMarker = "unrated"

// RatingSource is the authoritative rating store, normally the Postgres
// rating repo.
type RatingSource interface {
	Get(ctx context.Context, travelerID string) (*repository.TravelerRating, error)
}

// ReputationCache is a Redis read-through cache for traveler ratings. It
// satisfies both the scorer's ReputationSource and the lifecycle's
// ReputationInvalidator.
type ReputationCache struct {
	client *redis.Client
	source RatingSource
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func NewReputationCache(client *redis.Client, source RatingSource, ttl time.Duration) *ReputationCache {
	return &ReputationCache{client: client, source: source, ttl: ttl}
}

// TravelerRating returns the traveler's rating and whether they have one.
func (c *ReputationCache) TravelerRating(ctx context.Context, travelerID string) (float64, bool, error) {
	key := ratingKey(travelerID)

	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		if val == unratedMarker {
			return 0, false, nil
		}
		rating, parseErr := strconv.ParseFloat(val, 64)
		if parseErr == nil {
			return rating, true, nil
		}
		// Unparseable entry: fall through to the source and overwrite.
	} else if !errors.Is(err, redis.Nil) {
		return 0, false, fmt.Errorf("failed to get rating from redis: %w", err)
	}

	rating, err := c.source.Get(ctx, travelerID)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			_ = c.client.Set(ctx, key, unratedMarker, c.ttl).Err()
			return 0, false, nil
		}
		return 0, false, err
	}

	_ = c.client.Set(ctx, key, strconv.FormatFloat(rating.Rating, 'f', 2, 64), c.ttl).Err()
	return rating.Rating, true, nil
}

// Invalidate drops the cached rating after a new one is recorded.
func (c *ReputationCache) Invalidate(ctx context.Context, travelerID string) error {
	err := c.client.Del(ctx, ratingKey(travelerID)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to delete cached rating: %w", err)
	}
	return nil
}

func ratingKey(travelerID string) string {
	return "traveler_rating:" + travelerID
}
