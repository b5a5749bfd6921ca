package cache

import (
	"context"
	"sync"
	"time"

	"github.com/crossbag/backend/internal/metrics"
	"github.com/crossbag/backend/internal/repository"
)

// TripSource is the underlying trip store, normally the Postgres trip repo.
type TripSource interface {
	Create(ctx context.Context, trip *repository.Trip) error
	GetByID(ctx context.Context, id string) (*repository.Trip, error)
	GetByRoute(ctx context.Context, origin, dest string) ([]*repository.Trip, error)
	UpdateCapacity(ctx context.Context, trip *repository.Trip) error
}

type routeEntry struct {
	trips     []*repository.Trip
	fetchedAt time.Time
}

// TripCache is a short-TTL read-through cache over the route query the
// scorer hammers during publish. Writes go straight through to the source
// and drop the route entry, so a fresh trip or a capacity change is visible
// to the next scoring pass. Residual staleness is harmless: capacity and
// status are re-checked authoritatively at claim time.
type TripCache struct {
	mu     sync.RWMutex
	routes map[string]routeEntry
	source TripSource
	ttl    time.Duration
	now    func() time.Time
}

func NewTripCache(source TripSource, ttl time.Duration) *TripCache {
	return &TripCache{
		routes: make(map[string]routeEntry),
		source: source,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create registers the trip and invalidates its route.
func (c *TripCache) Create(ctx context.Context, trip *repository.Trip) error {
	if err := c.source.Create(ctx, trip); err != nil {
		return err
	}
	c.Invalidate(trip.OriginCountry, trip.DestCountry)
	return nil
}

func (c *TripCache) GetByID(ctx context.Context, id string) (*repository.Trip, error) {
	return c.source.GetByID(ctx, id)
}

// UpdateCapacity writes through and invalidates the route, so cached
// candidates do not overstate what is left after a claim.
func (c *TripCache) UpdateCapacity(ctx context.Context, trip *repository.Trip) error {
	if err := c.source.UpdateCapacity(ctx, trip); err != nil {
		return err
	}
	c.Invalidate(trip.OriginCountry, trip.DestCountry)
	return nil
}

func (c *TripCache) GetByRoute(ctx context.Context, origin, dest string) ([]*repository.Trip, error) {
	key := origin + "->" + dest

	c.mu.RLock()
	entry, found := c.routes[key]
	c.mu.RUnlock()
	if found && c.now().Sub(entry.fetchedAt) < c.ttl {
		return copyTrips(entry.trips), nil
	}

	trips, err := c.source.GetByRoute(ctx, origin, dest)
	if err != nil {
		// Serve the stale entry rather than failing the scoring pass.
		if found {
			return copyTrips(entry.trips), nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.routes[key] = routeEntry{trips: copyTrips(trips), fetchedAt: c.now()}
	total := 0
	for _, e := range c.routes {
		total += len(e.trips)
	}
	c.mu.Unlock()
	metrics.TripCacheItems.Set(float64(total))

	return trips, nil
}

// Invalidate drops the cached entry for a route, forcing the next scoring
// pass to hit the source.
func (c *TripCache) Invalidate(origin, dest string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.routes, origin+"->"+dest)
}

func copyTrips(trips []*repository.Trip) []*repository.Trip {
	out := make([]*repository.Trip, len(trips))
	for i, t := range trips {
		tripCopy := *t
		out[i] = &tripCopy
	}
	return out
}
