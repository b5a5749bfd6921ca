package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/crossbag/backend/internal/config"
	"github.com/crossbag/backend/internal/repository"
)

// TripSource supplies candidate trips for a route. Backed by the Postgres
// trip repo, usually fronted by the in-memory trip cache.
type TripSource interface {
	GetByRoute(ctx context.Context, origin, dest string) ([]*repository.Trip, error)
}

// ReputationSource supplies a traveler's current rating. The second return
// is false when the traveler has no rating yet.
type ReputationSource interface {
	TravelerRating(ctx context.Context, travelerID string) (float64, bool, error)
}

// Bundle aggregates the totals of a request's bag items that matter for
// matching.
type Bundle struct {
	ItemCount       int
	TotalWeightKg   float64
	TotalValue      float64
	Fragile         bool
	SpecialDelivery bool
}

// BundleOf folds a bag-item collection into its matching totals. Quantity
// multiplies both weight and value.
func BundleOf(items []*repository.BagItem) Bundle {
	var b Bundle
	for _, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		b.ItemCount++
		b.TotalWeightKg += item.WeightKg * float64(qty)
		b.TotalValue += item.Price * float64(qty)
		if item.Fragile {
			b.Fragile = true
		}
		if item.SpecialDelivery || item.SpecialCategory != "" {
			b.SpecialDelivery = true
		}
	}
	return b
}

func (b Bundle) Complexity() Complexity {
	return Complexity{
		ItemCount:          b.ItemCount,
		TotalValue:         b.TotalValue,
		HasSpecialDelivery: b.SpecialDelivery,
	}
}

// Criteria is the route and date window a scoring pass runs against.
type Criteria struct {
	Origin    string
	Dest      string
	ArrivalBy *time.Time // optional max-arrival window
	MinScore  int
}

type CapacityFit string

const (
	CapacityFitCarryOn CapacityFit = "carry_on"
	CapacityFitChecked CapacityFit = "checked"
)

// ScoredTrip is one surviving candidate with its score and the
// human-readable reasons behind it.
type ScoredTrip struct {
	Trip        *repository.Trip
	Score       int
	Rationale   []string
	CapacityFit CapacityFit
}

// Scorer filters infeasible trips and ranks the survivors. It is pure with
// respect to its inputs except for the traveler-reputation read; it performs
// no writes and cannot fail except by returning an empty list.
type Scorer struct {
	trips      TripSource
	reputation ReputationSource
	leadTime   LeadTimeValidator
	weights    config.ScoreWeights
	maxRating  float64
	logger     *zap.Logger
}

func NewScorer(trips TripSource, reputation ReputationSource, leadTime LeadTimeValidator, weights config.ScoreWeights, maxRating float64, logger *zap.Logger) *Scorer {
	return &Scorer{
		trips:      trips,
		reputation: reputation,
		leadTime:   leadTime,
		weights:    weights,
		maxRating:  maxRating,
		logger:     logger,
	}
}

// Score ranks the feasible trips for a bundle, descending. Ties break on
// earliest departure, then trip id, so the ordering is deterministic
// regardless of candidate fetch order.
func (s *Scorer) Score(ctx context.Context, items []*repository.BagItem, criteria Criteria, now time.Time) ([]ScoredTrip, error) {
	bundle := BundleOf(items)

	candidates, err := s.trips.GetByRoute(ctx, criteria.Origin, criteria.Dest)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate trips: %w", err)
	}

	scored := make([]ScoredTrip, 0, len(candidates))
	for _, trip := range candidates {
		if lt := s.leadTime.TripMeetsLeadTime(trip.DepartureAt, now, bundle.Complexity()); !lt.Valid {
			s.logger.Debug("trip filtered: insufficient lead time",
				zap.String("trip_id", trip.ID),
				zap.Int("required_days", lt.RequiredDays),
				zap.Int("actual_days", lt.ActualDays))
			continue
		}
		if err := checkFeasibility(bundle, trip); err != nil {
			s.logger.Debug("trip filtered", zap.String("trip_id", trip.ID), zap.Error(err))
			continue
		}

		st := s.scoreTrip(ctx, bundle, trip, criteria)
		if st.Score < criteria.MinScore {
			continue
		}
		scored = append(scored, st)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if !scored[i].Trip.DepartureAt.Equal(scored[j].Trip.DepartureAt) {
			return scored[i].Trip.DepartureAt.Before(scored[j].Trip.DepartureAt)
		}
		return scored[i].Trip.ID < scored[j].Trip.ID
	})

	return scored, nil
}

// checkFeasibility rejects trips that cannot physically carry the bundle.
func checkFeasibility(b Bundle, trip *repository.Trip) error {
	if b.Fragile && !trip.FragileOk {
		return fmt.Errorf("%w: bundle is fragile, trip cannot carry fragile items", ErrCapabilityMismatch)
	}
	if b.SpecialDelivery && !trip.SpecialDeliveryOk {
		return fmt.Errorf("%w: bundle needs special delivery, trip cannot handle it", ErrCapabilityMismatch)
	}
	if b.TotalWeightKg > trip.AvailableCarryOnKg && b.TotalWeightKg > trip.AvailableCheckedKg {
		return &CapacityExceededError{
			NeededKg:  b.TotalWeightKg,
			CarryOnKg: trip.AvailableCarryOnKg,
			CheckedKg: trip.AvailableCheckedKg,
		}
	}
	return nil
}

func (s *Scorer) scoreTrip(ctx context.Context, b Bundle, trip *repository.Trip, criteria Criteria) ScoredTrip {
	w := s.weights
	score := 0
	var rationale []string
	var fit CapacityFit

	// Always true post-filter; scored explicitly so the rationale reads
	// completely on its own.
	score += w.RouteMatch
	rationale = append(rationale, fmt.Sprintf("exact route match %s -> %s", trip.OriginCountry, trip.DestCountry))

	if criteria.ArrivalBy != nil && !trip.ArrivalAt.After(*criteria.ArrivalBy) {
		score += w.ArrivalWindow
		rationale = append(rationale, "arrival within requested window")
	}

	if b.TotalWeightKg <= trip.AvailableCarryOnKg {
		score += w.CarryOnFit
		fit = CapacityFitCarryOn
		rationale = append(rationale, fmt.Sprintf("bundle (%.1fkg) fits carry-on allowance (%.1fkg)", b.TotalWeightKg, trip.AvailableCarryOnKg))
	} else {
		score += w.CheckedFit
		fit = CapacityFitChecked
		rationale = append(rationale, fmt.Sprintf("bundle (%.1fkg) fits checked allowance (%.1fkg)", b.TotalWeightKg, trip.AvailableCheckedKg))
	}

	rating, rated, err := s.reputation.TravelerRating(ctx, trip.TravelerID)
	if err != nil {
		// A reputation outage degrades the score, it never blocks matching.
		s.logger.Warn("failed to read traveler reputation", zap.String("traveler_id", trip.TravelerID), zap.Error(err))
	} else if rated && s.maxRating > 0 {
		contribution := int(math.Round(rating / s.maxRating * float64(w.ReputationMax)))
		score += contribution
		rationale = append(rationale, fmt.Sprintf("traveler rated %.1f/%.0f", rating, s.maxRating))
	}

	if b.Fragile && trip.FragileOk {
		score += w.FragileBonus
		rationale = append(rationale, "fragile handling supported")
	}
	if b.SpecialDelivery && trip.SpecialDeliveryOk {
		score += w.SpecialBonus
		rationale = append(rationale, "special delivery supported")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return ScoredTrip{Trip: trip, Score: score, Rationale: rationale, CapacityFit: fit}
}
