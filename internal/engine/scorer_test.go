package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crossbag/backend/internal/config"
	"github.com/crossbag/backend/internal/repository"
)

var testWeights = config.ScoreWeights{
	RouteMatch:    30,
	ArrivalWindow: 20,
	CarryOnFit:    25,
	CheckedFit:    15,
	ReputationMax: 10,
	FragileBonus:  10,
	SpecialBonus:  5,
}

var scorerNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestScorer(trips *fakeTripRepo, reputation *fakeReputation) *Scorer {
	return NewScorer(trips, reputation, testLeadTime, testWeights, 5, zap.NewNop())
}

func makeTrip(id, traveler string, daysOut int, mutate func(*repository.Trip)) *repository.Trip {
	trip := &repository.Trip{
		ID:                 id,
		TravelerID:         traveler,
		OriginCountry:      "US",
		DestCountry:        "BR",
		DepartureAt:        scorerNow.Add(time.Duration(daysOut) * 24 * time.Hour),
		ArrivalAt:          scorerNow.Add(time.Duration(daysOut+1) * 24 * time.Hour),
		AvailableCarryOnKg: 8,
		AvailableCheckedKg: 20,
		FragileOk:          true,
		SpecialDeliveryOk:  true,
		Status:             repository.TripStatusActive,
		Version:            1,
	}
	if mutate != nil {
		mutate(trip)
	}
	return trip
}

func simpleItems() []*repository.BagItem {
	return []*repository.BagItem{
		{ID: "i-1", Name: "headphones", Price: 200, WeightKg: 0.5, Quantity: 1},
	}
}

func TestScoreFiltersInfeasibleTrips(t *testing.T) {
	ctx := context.Background()
	trips := newFakeTripRepo()
	scorer := newTestScorer(trips, newFakeReputation())

	require.NoError(t, trips.Create(ctx, makeTrip("t-ok", "tr-1", 10, nil)))
	require.NoError(t, trips.Create(ctx, makeTrip("t-soon", "tr-2", 2, nil)))
	require.NoError(t, trips.Create(ctx, makeTrip("t-nofragile", "tr-3", 10, func(tr *repository.Trip) {
		tr.FragileOk = false
	})))
	require.NoError(t, trips.Create(ctx, makeTrip("t-tiny", "tr-4", 10, func(tr *repository.Trip) {
		tr.AvailableCarryOnKg = 0.1
		tr.AvailableCheckedKg = 0.2
	})))

	items := []*repository.BagItem{
		{ID: "i-1", Name: "vase", Price: 100, WeightKg: 2, Quantity: 1, Fragile: true},
	}

	scored, err := scorer.Score(ctx, items, Criteria{Origin: "US", Dest: "BR"}, scorerNow)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "t-ok", scored[0].Trip.ID)
}

func TestScoreCarryOnBeatsChecked(t *testing.T) {
	ctx := context.Background()
	trips := newFakeTripRepo()
	scorer := newTestScorer(trips, newFakeReputation())

	require.NoError(t, trips.Create(ctx, makeTrip("t-carry", "tr-1", 10, nil)))
	require.NoError(t, trips.Create(ctx, makeTrip("t-checked", "tr-2", 10, func(tr *repository.Trip) {
		tr.AvailableCarryOnKg = 0.1
	})))

	scored, err := scorer.Score(ctx, simpleItems(), Criteria{Origin: "US", Dest: "BR"}, scorerNow)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	assert.Equal(t, "t-carry", scored[0].Trip.ID)
	assert.Equal(t, CapacityFitCarryOn, scored[0].CapacityFit)
	assert.Equal(t, CapacityFitChecked, scored[1].CapacityFit)
	// Same trips except for the fit: exactly the carry-on/checked weight gap.
	assert.Equal(t, testWeights.CarryOnFit-testWeights.CheckedFit, scored[0].Score-scored[1].Score)
}

func TestScoreArrivalWindow(t *testing.T) {
	ctx := context.Background()
	trips := newFakeTripRepo()
	scorer := newTestScorer(trips, newFakeReputation())

	arrivalBy := scorerNow.Add(12 * 24 * time.Hour)
	require.NoError(t, trips.Create(ctx, makeTrip("t-inside", "tr-1", 10, nil)))
	require.NoError(t, trips.Create(ctx, makeTrip("t-outside", "tr-2", 10, func(tr *repository.Trip) {
		tr.ArrivalAt = scorerNow.Add(20 * 24 * time.Hour)
	})))

	scored, err := scorer.Score(ctx, simpleItems(), Criteria{Origin: "US", Dest: "BR", ArrivalBy: &arrivalBy}, scorerNow)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	assert.Equal(t, "t-inside", scored[0].Trip.ID)
	assert.Equal(t, testWeights.ArrivalWindow, scored[0].Score-scored[1].Score)
	assert.Contains(t, scored[0].Rationale, "arrival within requested window")
}

func TestScoreReputationContribution(t *testing.T) {
	ctx := context.Background()
	trips := newFakeTripRepo()
	reputation := newFakeReputation()
	reputation.ratings["tr-rated"] = 4.0
	scorer := newTestScorer(trips, reputation)

	require.NoError(t, trips.Create(ctx, makeTrip("t-rated", "tr-rated", 10, nil)))
	require.NoError(t, trips.Create(ctx, makeTrip("t-unrated", "tr-new", 10, nil)))

	scored, err := scorer.Score(ctx, simpleItems(), Criteria{Origin: "US", Dest: "BR"}, scorerNow)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	// 4.0/5 * 10 = 8 extra points for the rated traveler.
	assert.Equal(t, "t-rated", scored[0].Trip.ID)
	assert.Equal(t, 8, scored[0].Score-scored[1].Score)
}

func TestScoreReputationOutageDegrades(t *testing.T) {
	ctx := context.Background()
	trips := newFakeTripRepo()
	reputation := newFakeReputation()
	reputation.err = assert.AnError
	scorer := newTestScorer(trips, reputation)

	require.NoError(t, trips.Create(ctx, makeTrip("t-1", "tr-1", 10, nil)))

	scored, err := scorer.Score(ctx, simpleItems(), Criteria{Origin: "US", Dest: "BR"}, scorerNow)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, testWeights.RouteMatch+testWeights.CarryOnFit, scored[0].Score)
}

func TestScoreBonuses(t *testing.T) {
	ctx := context.Background()
	trips := newFakeTripRepo()
	scorer := newTestScorer(trips, newFakeReputation())

	require.NoError(t, trips.Create(ctx, makeTrip("t-1", "tr-1", 10, nil)))

	items := []*repository.BagItem{
		{ID: "i-1", Name: "vase", Price: 100, WeightKg: 1, Quantity: 1, Fragile: true},
		{ID: "i-2", Name: "medicine", Price: 50, WeightKg: 0.2, Quantity: 1, SpecialDelivery: true, SpecialCategory: "medicine"},
	}

	scored, err := scorer.Score(ctx, items, Criteria{Origin: "US", Dest: "BR"}, scorerNow)
	require.NoError(t, err)
	require.Len(t, scored, 1)

	want := testWeights.RouteMatch + testWeights.CarryOnFit + testWeights.FragileBonus + testWeights.SpecialBonus
	assert.Equal(t, want, scored[0].Score)
	assert.Contains(t, scored[0].Rationale, "fragile handling supported")
	assert.Contains(t, scored[0].Rationale, "special delivery supported")
}

func TestScoreDeterministicTieBreak(t *testing.T) {
	ctx := context.Background()
	trips := newFakeTripRepo()
	scorer := newTestScorer(trips, newFakeReputation())

	// Identical trips except departure; identical scores.
	require.NoError(t, trips.Create(ctx, makeTrip("t-late", "tr-1", 12, nil)))
	require.NoError(t, trips.Create(ctx, makeTrip("t-early", "tr-2", 10, nil)))
	// Same departure as t-early; id breaks the tie.
	require.NoError(t, trips.Create(ctx, makeTrip("t-aaa", "tr-3", 10, nil)))

	scored, err := scorer.Score(ctx, simpleItems(), Criteria{Origin: "US", Dest: "BR"}, scorerNow)
	require.NoError(t, err)
	require.Len(t, scored, 3)

	assert.Equal(t, "t-aaa", scored[0].Trip.ID)
	assert.Equal(t, "t-early", scored[1].Trip.ID)
	assert.Equal(t, "t-late", scored[2].Trip.ID)
}

func TestScoreMinScoreCutoff(t *testing.T) {
	ctx := context.Background()
	trips := newFakeTripRepo()
	scorer := newTestScorer(trips, newFakeReputation())

	require.NoError(t, trips.Create(ctx, makeTrip("t-carry", "tr-1", 10, nil)))
	require.NoError(t, trips.Create(ctx, makeTrip("t-checked", "tr-2", 10, func(tr *repository.Trip) {
		tr.AvailableCarryOnKg = 0.1
	})))

	// carry-on trip scores 55, checked-only 45.
	scored, err := scorer.Score(ctx, simpleItems(), Criteria{Origin: "US", Dest: "BR", MinScore: 50}, scorerNow)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "t-carry", scored[0].Trip.ID)
}

func TestBundleOf(t *testing.T) {
	items := []*repository.BagItem{
		{ID: "i-1", Price: 100, WeightKg: 2, Quantity: 3},
		{ID: "i-2", Price: 50, WeightKg: 1, Quantity: 0, Fragile: true},
		{ID: "i-3", Price: 10, WeightKg: 0.5, Quantity: 1, SpecialCategory: "food"},
	}

	b := BundleOf(items)

	assert.Equal(t, 3, b.ItemCount)
	assert.InDelta(t, 7.5, b.TotalWeightKg, 1e-9)
	assert.InDelta(t, 360.0, b.TotalValue, 1e-9)
	assert.True(t, b.Fragile)
	assert.True(t, b.SpecialDelivery)
}
