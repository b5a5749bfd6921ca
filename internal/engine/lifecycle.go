package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crossbag/backend/internal/db"
	"github.com/crossbag/backend/internal/metrics"
	"github.com/crossbag/backend/internal/repository"
)

// TxBeginner opens the transaction that ties a state change and its outbox
// events together.
type TxBeginner interface {
	BeginTx(ctx context.Context) (db.Tx, error)
}

// RequestRepo is the persistence surface for shopper requests and their
// bag items.
type RequestRepo interface {
	Create(ctx context.Context, req *repository.ShopperRequest, items []*repository.BagItem) error
	GetByID(ctx context.Context, id string) (*repository.ShopperRequest, error)
	GetItems(ctx context.Context, requestID string) ([]*repository.BagItem, error)
	Update(ctx context.Context, req *repository.ShopperRequest) error
	UpdateTx(ctx context.Context, tx db.Tx, req *repository.ShopperRequest) error
}

// TripRepo is the persistence surface for trips. UpdateCapacity must be
// conditional on the row version and return repository.ErrVersionConflict
// when a concurrent claim won the race.
type TripRepo interface {
	Create(ctx context.Context, trip *repository.Trip) error
	GetByID(ctx context.Context, id string) (*repository.Trip, error)
	UpdateCapacity(ctx context.Context, trip *repository.Trip) error
}

// MatchRepo is the idempotent-lookup contract over match persistence:
// Create is append-only and the engine always lists existing matches for
// the request before creating.
type MatchRepo interface {
	Create(ctx context.Context, m *repository.Match) error
	GetByID(ctx context.Context, id string) (*repository.Match, error)
	GetByRequestID(ctx context.Context, requestID string) ([]*repository.Match, error)
	GetByTripID(ctx context.Context, tripID string) ([]*repository.Match, error)
	Update(ctx context.Context, m *repository.Match) error
	UpdateTx(ctx context.Context, tx db.Tx, m *repository.Match) error
}

// RatingStore folds newly submitted ratings into a traveler's running mean.
type RatingStore interface {
	Add(ctx context.Context, travelerID string, rating float64) error
}

// ReputationInvalidator drops a traveler's cached reputation after a new
// rating lands.
type ReputationInvalidator interface {
	Invalidate(ctx context.Context, travelerID string) error
}

// Notifier enqueues a notification event inside the caller's transaction,
// so the event commits or rolls back together with the state change it
// announces. Delivery to the broker happens asynchronously afterwards.
type Notifier interface {
	Notify(ctx context.Context, tx db.Tx, n repository.NotificationPayload) error
}

// LifecycleConfig is the subset of configuration the lifecycle manager
// needs: the two booking windows and the price-summary rates.
type LifecycleConfig struct {
	CooldownHours       int
	PurchaseWindowHours int
	ServiceFeePct       float64
	TaxPct              float64
	DeliveryFeeFlat     float64
	MinScore            int
}

// Lifecycle owns the match state machine and the request transitions that
// accompany it. All dependencies are injected; there is no ambient state.
type Lifecycle struct {
	db         TxBeginner
	requests   RequestRepo
	trips      TripRepo
	matches    MatchRepo
	ratings    RatingStore
	reputation ReputationInvalidator
	scorer     *Scorer
	notifier   Notifier
	cfg        LifecycleConfig
	now        func() time.Time
	logger     *zap.Logger
}

func NewLifecycle(
	database TxBeginner,
	requests RequestRepo,
	trips TripRepo,
	matches MatchRepo,
	ratings RatingStore,
	reputation ReputationInvalidator,
	scorer *Scorer,
	notifier Notifier,
	cfg LifecycleConfig,
	now func() time.Time,
	logger *zap.Logger,
) *Lifecycle {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Lifecycle{
		db:         database,
		requests:   requests,
		trips:      trips,
		matches:    matches,
		ratings:    ratings,
		reputation: reputation,
		scorer:     scorer,
		notifier:   notifier,
		cfg:        cfg,
		now:        now,
		logger:     logger,
	}
}

// ItemInput is one product line of a new request.
type ItemInput struct {
	Name            string
	Price           float64
	Currency        string
	WeightKg        float64
	Quantity        int
	Fragile         bool
	SpecialDelivery bool
	SpecialCategory string
}

// RequestInput is the payload for creating a shopper request.
type RequestInput struct {
	OriginCountry string
	DestCountry   string
	DeliveryFrom  *time.Time
	DeliveryTo    *time.Time
	Items         []ItemInput
}

// TripInput is the payload for registering a trip.
type TripInput struct {
	OriginCountry      string
	DestCountry        string
	DepartureAt        time.Time
	ArrivalAt          time.Time
	AvailableCarryOnKg float64
	AvailableCheckedKg float64
	FragileOk          bool
	SpecialDeliveryOk  bool
}

// CreateRequest validates and persists a new request with its bundle. The
// price summary is computed here once and never recomputed.
func (l *Lifecycle) CreateRequest(ctx context.Context, shopperID string, in RequestInput) (*repository.ShopperRequest, error) {
	if shopperID == "" {
		return nil, fmt.Errorf("%w: missing shopper id", ErrValidation)
	}
	if in.OriginCountry == "" || in.DestCountry == "" {
		return nil, fmt.Errorf("%w: origin and destination countries are required", ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: a request needs at least one item", ErrValidation)
	}

	now := l.now()
	req := &repository.ShopperRequest{
		ID:            uuid.NewString(),
		ShopperID:     shopperID,
		OriginCountry: in.OriginCountry,
		DestCountry:   in.DestCountry,
		DeliveryFrom:  in.DeliveryFrom,
		DeliveryTo:    in.DeliveryTo,
		Status:        repository.RequestStatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	items := make([]*repository.BagItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Name == "" {
			return nil, fmt.Errorf("%w: item name is required", ErrValidation)
		}
		if it.Price < 0 || it.WeightKg <= 0 {
			return nil, fmt.Errorf("%w: item %q has invalid price or weight", ErrValidation, it.Name)
		}
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		currency := it.Currency
		if currency == "" {
			currency = "USD"
		}
		items = append(items, &repository.BagItem{
			ID:              uuid.NewString(),
			RequestID:       req.ID,
			Name:            it.Name,
			Price:           it.Price,
			Currency:        currency,
			WeightKg:        it.WeightKg,
			Quantity:        qty,
			Fragile:         it.Fragile,
			SpecialDelivery: it.SpecialDelivery,
			SpecialCategory: it.SpecialCategory,
		})
		req.ItemCost += it.Price * float64(qty)
	}

	req.DeliveryFee = l.cfg.DeliveryFeeFlat
	req.ServiceFee = req.ItemCost * l.cfg.ServiceFeePct / 100
	req.Tax = (req.ItemCost + req.ServiceFee) * l.cfg.TaxPct / 100

	if err := l.requests.Create(ctx, req, items); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("create_request").Inc()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return req, nil
}

// RegisterTrip validates and persists a traveler's offered capacity.
func (l *Lifecycle) RegisterTrip(ctx context.Context, travelerID string, in TripInput) (*repository.Trip, error) {
	if travelerID == "" {
		return nil, fmt.Errorf("%w: missing traveler id", ErrValidation)
	}
	if in.OriginCountry == "" || in.DestCountry == "" {
		return nil, fmt.Errorf("%w: origin and destination countries are required", ErrValidation)
	}
	now := l.now()
	if !in.DepartureAt.After(now) {
		return nil, fmt.Errorf("%w: departure must be in the future", ErrValidation)
	}
	if !in.ArrivalAt.After(in.DepartureAt) {
		return nil, fmt.Errorf("%w: arrival must be after departure", ErrValidation)
	}
	if in.AvailableCarryOnKg < 0 || in.AvailableCheckedKg < 0 {
		return nil, fmt.Errorf("%w: capacities cannot be negative", ErrValidation)
	}

	trip := &repository.Trip{
		ID:                 uuid.NewString(),
		TravelerID:         travelerID,
		OriginCountry:      in.OriginCountry,
		DestCountry:        in.DestCountry,
		DepartureAt:        in.DepartureAt,
		ArrivalAt:          in.ArrivalAt,
		AvailableCarryOnKg: in.AvailableCarryOnKg,
		AvailableCheckedKg: in.AvailableCheckedKg,
		FragileOk:          in.FragileOk,
		SpecialDeliveryOk:  in.SpecialDeliveryOk,
		Status:             repository.TripStatusPending,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := l.trips.Create(ctx, trip); err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("register_trip").Inc()
		return nil, fmt.Errorf("failed to register trip: %w", err)
	}
	return trip, nil
}

// PublishRequest scores the trip pool for the request's bundle and persists
// the survivors as pending matches.
//
// Matches are created sequentially, one trip at a time, with a fresh
// existence check immediately before each create. Two concurrent publishes
// of the same request may interleave, but the per-trip recheck keeps any
// (request, trip) pair from gaining a second non-rejected match. Do not
// replace this with batched pre-checks and parallel creation.
func (l *Lifecycle) PublishRequest(ctx context.Context, shopperID, requestID string) ([]*repository.Match, error) {
	req, err := l.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ShopperID != shopperID {
		return nil, ErrUnauthorized
	}
	if req.Status != repository.RequestStatusOpen && req.Status != repository.RequestStatusDraft {
		return nil, &InvalidStateError{Op: "publish", Status: string(req.Status)}
	}

	items, err := l.requests.GetItems(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bag items: %w", err)
	}

	criteria := Criteria{
		Origin:    req.OriginCountry,
		Dest:      req.DestCountry,
		ArrivalBy: req.DeliveryTo,
		MinScore:  l.cfg.MinScore,
	}
	scored, err := l.scorer.Score(ctx, items, criteria, l.now())
	if err != nil {
		return nil, err
	}

	if req.Status == repository.RequestStatusDraft {
		req.Status = repository.RequestStatusOpen
		req.UpdatedAt = l.now()
		if err := l.requests.Update(ctx, req); err != nil {
			return nil, fmt.Errorf("failed to open request: %w", err)
		}
	}

	created := make([]*repository.Match, 0, len(scored))
	for _, st := range scored {
		existing, err := l.matches.GetByRequestID(ctx, requestID)
		if err != nil {
			l.logger.Error("failed to list existing matches, skipping trip",
				zap.String("request_id", requestID),
				zap.String("trip_id", st.Trip.ID),
				zap.Error(err))
			continue
		}
		if hasActiveMatchForTrip(existing, st.Trip.ID) {
			continue
		}

		now := l.now()
		m := &repository.Match{
			ID:              uuid.NewString(),
			RequestID:       requestID,
			TripID:          st.Trip.ID,
			TravelerID:      st.Trip.TravelerID,
			MatchScore:      st.Score,
			AssignedItemIDs: []string{},
			Status:          repository.MatchStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := l.matches.Create(ctx, m); err != nil {
			l.logger.Error("failed to create match",
				zap.String("request_id", requestID),
				zap.String("trip_id", st.Trip.ID),
				zap.Error(err))
			metrics.OperationErrorsTotal.WithLabelValues("create_match").Inc()
			continue
		}
		metrics.MatchesCreatedTotal.Inc()
		created = append(created, m)
	}

	return created, nil
}

// CreateMatch persists one match after validating its references. It is
// append-only; callers are responsible for the lookup-before-create
// discipline (see PublishRequest).
func (l *Lifecycle) CreateMatch(ctx context.Context, requestID, tripID string, score int, assignedItemIDs []string) (*repository.Match, error) {
	req, err := l.getRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	trip, err := l.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if len(assignedItemIDs) > 0 {
		items, err := l.requests.GetItems(ctx, requestID)
		if err != nil {
			return nil, fmt.Errorf("failed to load bag items: %w", err)
		}
		if _, err := pickItems(items, assignedItemIDs); err != nil {
			return nil, err
		}
	}
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("%w: match score %d out of range", ErrValidation, score)
	}

	now := l.now()
	m := &repository.Match{
		ID:              uuid.NewString(),
		RequestID:       req.ID,
		TripID:          trip.ID,
		TravelerID:      trip.TravelerID,
		MatchScore:      score,
		AssignedItemIDs: append([]string{}, assignedItemIDs...),
		Status:          repository.MatchStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := l.matches.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	metrics.MatchesCreatedTotal.Inc()
	return m, nil
}

// ListMatches returns all matches for a request, oldest first.
func (l *Lifecycle) ListMatches(ctx context.Context, requestID string) ([]*repository.Match, error) {
	if _, err := l.getRequest(ctx, requestID); err != nil {
		return nil, err
	}
	return l.matches.GetByRequestID(ctx, requestID)
}

// ClaimMatch assigns specific items to a pending match, checks them against
// the trip's remaining capacity and moves the match to claimed. The
// capacity decrement is guarded by an optimistic version check on the trip
// row.
func (l *Lifecycle) ClaimMatch(ctx context.Context, travelerID, matchID string, assignedItemIDs []string) (*repository.Match, error) {
	m, err := l.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.TravelerID != travelerID {
		return nil, ErrUnauthorized
	}
	if m.Status != repository.MatchStatusPending {
		return nil, &InvalidStateError{Op: "claim", Status: string(m.Status)}
	}
	if len(assignedItemIDs) == 0 {
		return nil, fmt.Errorf("%w: a claim must assign at least one item", ErrValidation)
	}

	// One active match per request: a second traveler cannot claim a
	// request that is already claimed or approved elsewhere.
	siblings, err := l.matches.GetByRequestID(ctx, m.RequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sibling matches: %w", err)
	}
	for _, sib := range siblings {
		if sib.ID != m.ID && isActiveMatch(sib.Status) && sib.Status != repository.MatchStatusPending {
			return nil, fmt.Errorf("%w: request already has an active match", ErrValidation)
		}
	}

	items, err := l.requests.GetItems(ctx, m.RequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bag items: %w", err)
	}
	assigned, err := pickItems(items, assignedItemIDs)
	if err != nil {
		return nil, err
	}

	var weight float64
	for _, item := range assigned {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		weight += item.WeightKg * float64(qty)
	}

	trip, err := l.getTrip(ctx, m.TripID)
	if err != nil {
		return nil, err
	}

	switch {
	case weight <= trip.AvailableCarryOnKg:
		trip.AvailableCarryOnKg -= weight
	case weight <= trip.AvailableCheckedKg:
		trip.AvailableCheckedKg -= weight
	default:
		return nil, &CapacityExceededError{
			NeededKg:  weight,
			CarryOnKg: trip.AvailableCarryOnKg,
			CheckedKg: trip.AvailableCheckedKg,
		}
	}

	trip.UpdatedAt = l.now()
	if err := l.trips.UpdateCapacity(ctx, trip); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("trip capacity changed concurrently, retry the claim: %w", err)
		}
		return nil, fmt.Errorf("failed to update trip capacity: %w", err)
	}

	m.AssignedItemIDs = append([]string{}, assignedItemIDs...)
	m.Status = repository.MatchStatusClaimed
	m.UpdatedAt = l.now()
	if err := l.matches.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}

	req, err := l.getRequest(ctx, m.RequestID)
	if err == nil && req.Status == repository.RequestStatusOpen {
		req.Status = repository.RequestStatusMatched
		req.UpdatedAt = l.now()
		if err := l.requests.Update(ctx, req); err != nil {
			l.logger.Error("failed to mark request matched", zap.String("request_id", req.ID), zap.Error(err))
		}
	}

	metrics.MatchesClaimedTotal.Inc()
	return m, nil
}

// ApproveMatch is the shopper's acceptance of a claimed match. It starts
// the cooldown window and schedules the purchase deadline behind it; from
// here on, the sweeps own the request until completion or cancellation.
func (l *Lifecycle) ApproveMatch(ctx context.Context, shopperID, matchID string) (*repository.Match, error) {
	m, err := l.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	req, err := l.getRequest(ctx, m.RequestID)
	if err != nil {
		return nil, err
	}
	if req.ShopperID != shopperID {
		return nil, ErrUnauthorized
	}
	if m.Status != repository.MatchStatusClaimed {
		return nil, &InvalidStateError{Op: "approve", Status: string(m.Status)}
	}

	now := l.now()
	cooldownEnds := now.Add(time.Duration(l.cfg.CooldownHours) * time.Hour)
	purchaseDeadline := cooldownEnds.Add(time.Duration(l.cfg.PurchaseWindowHours) * time.Hour)

	req.Status = repository.RequestStatusOnHold
	req.CooldownEndsAt = &cooldownEnds
	req.PurchaseDeadline = &purchaseDeadline
	req.CooldownProcessed = false
	req.UpdatedAt = now

	m.Status = repository.MatchStatusApproved
	m.UpdatedAt = now

	err = inTx(ctx, l.db, func(tx db.Tx) error {
		if err := l.requests.UpdateTx(ctx, tx, req); err != nil {
			return fmt.Errorf("failed to place request on hold: %w", err)
		}
		if err := l.matches.UpdateTx(ctx, tx, m); err != nil {
			return fmt.Errorf("failed to approve match: %w", err)
		}
		if err := l.notifier.Notify(ctx, tx, repository.NotificationPayload{
			Timestamp: now,
			UserID:    req.ShopperID,
			Template:  "booking_confirmed_shopper",
			MatchID:   m.ID,
			RequestID: req.ID,
			TripID:    m.TripID,
			Metadata:  map[string]string{"cooldown_ends_at": cooldownEnds.Format(time.RFC3339)},
		}); err != nil {
			return fmt.Errorf("failed to enqueue shopper confirmation: %w", err)
		}
		if err := l.notifier.Notify(ctx, tx, repository.NotificationPayload{
			Timestamp: now,
			UserID:    m.TravelerID,
			Template:  "booking_confirmed_traveler",
			MatchID:   m.ID,
			RequestID: req.ID,
			TripID:    m.TripID,
			Metadata:  map[string]string{"purchase_deadline": purchaseDeadline.Format(time.RFC3339)},
		}); err != nil {
			return fmt.Errorf("failed to enqueue traveler confirmation: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("approve_match").Inc()
		return nil, err
	}

	metrics.MatchesApprovedTotal.Inc()
	return m, nil
}

// CancelDuringCooldown lets either party back out while the request is
// still inside its cooldown window. The match is terminal afterwards; the
// request becomes re-matchable.
func (l *Lifecycle) CancelDuringCooldown(ctx context.Context, userID, matchID, reason string) error {
	m, err := l.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	req, err := l.getRequest(ctx, m.RequestID)
	if err != nil {
		return err
	}
	if userID != req.ShopperID && userID != m.TravelerID {
		return ErrUnauthorized
	}
	if m.Status != repository.MatchStatusApproved {
		return &InvalidStateError{Op: "cancel", Status: string(m.Status)}
	}
	if req.CooldownEndsAt == nil || l.now().After(*req.CooldownEndsAt) {
		return ErrWindowExpired
	}

	now := l.now()
	m.Status = repository.MatchStatusRejected
	m.UpdatedAt = now

	req.Status = repository.RequestStatusOpen
	req.CooldownEndsAt = nil
	req.PurchaseDeadline = nil
	req.CooldownProcessed = false
	req.CancelReason = reason
	req.UpdatedAt = now

	return inTx(ctx, l.db, func(tx db.Tx) error {
		if err := l.matches.UpdateTx(ctx, tx, m); err != nil {
			return fmt.Errorf("failed to reject match: %w", err)
		}
		if err := l.requests.UpdateTx(ctx, tx, req); err != nil {
			return fmt.Errorf("failed to reopen request: %w", err)
		}
		return nil
	})
}

// CompleteMatch is the traveler marking an approved match as fulfilled.
func (l *Lifecycle) CompleteMatch(ctx context.Context, travelerID, matchID string) (*repository.Match, error) {
	m, err := l.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m.TravelerID != travelerID {
		return nil, ErrUnauthorized
	}
	if m.Status != repository.MatchStatusApproved {
		return nil, &InvalidStateError{Op: "complete", Status: string(m.Status)}
	}

	req, err := l.getRequest(ctx, m.RequestID)
	if err != nil {
		return nil, err
	}

	now := l.now()
	m.Status = repository.MatchStatusCompleted
	m.UpdatedAt = now

	err = inTx(ctx, l.db, func(tx db.Tx) error {
		if err := l.matches.UpdateTx(ctx, tx, m); err != nil {
			return fmt.Errorf("failed to complete match: %w", err)
		}
		if err := l.notifier.Notify(ctx, tx, repository.NotificationPayload{
			Timestamp: now,
			UserID:    req.ShopperID,
			Template:  "funds_released",
			MatchID:   m.ID,
			RequestID: req.ID,
			TripID:    m.TripID,
		}); err != nil {
			return fmt.Errorf("failed to enqueue fund release notice: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("complete_match").Inc()
		return nil, err
	}

	metrics.MatchesCompletedTotal.Inc()
	return m, nil
}

// RejectMatch declines a match that has not been approved yet. Either party
// may reject.
func (l *Lifecycle) RejectMatch(ctx context.Context, userID, matchID string) error {
	m, err := l.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	req, err := l.getRequest(ctx, m.RequestID)
	if err != nil {
		return err
	}
	if userID != req.ShopperID && userID != m.TravelerID {
		return ErrUnauthorized
	}
	if m.Status != repository.MatchStatusPending && m.Status != repository.MatchStatusClaimed {
		return &InvalidStateError{Op: "reject", Status: string(m.Status)}
	}

	m.Status = repository.MatchStatusRejected
	m.UpdatedAt = l.now()
	return l.matches.Update(ctx, m)
}

// RateMatch records the shopper's rating of the traveler after completion
// and drops the traveler's cached reputation.
func (l *Lifecycle) RateMatch(ctx context.Context, shopperID, matchID string, rating float64) error {
	m, err := l.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	req, err := l.getRequest(ctx, m.RequestID)
	if err != nil {
		return err
	}
	if req.ShopperID != shopperID {
		return ErrUnauthorized
	}
	if m.Status != repository.MatchStatusCompleted {
		return &InvalidStateError{Op: "rate", Status: string(m.Status)}
	}
	if rating < 0 || rating > 5 {
		return fmt.Errorf("%w: rating %.1f out of range", ErrValidation, rating)
	}

	if err := l.ratings.Add(ctx, m.TravelerID, rating); err != nil {
		return fmt.Errorf("failed to record rating: %w", err)
	}
	if err := l.reputation.Invalidate(ctx, m.TravelerID); err != nil {
		l.logger.Warn("failed to invalidate cached reputation",
			zap.String("traveler_id", m.TravelerID), zap.Error(err))
	}
	return nil
}

// inTx runs fn inside one transaction, committing on success. The deferred
// rollback is a no-op after commit.
func inTx(ctx context.Context, database TxBeginner, fn func(tx db.Tx) error) error {
	tx, err := database.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (l *Lifecycle) getRequest(ctx context.Context, id string) (*repository.ShopperRequest, error) {
	req, err := l.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return req, nil
}

func (l *Lifecycle) getTrip(ctx context.Context, id string) (*repository.Trip, error) {
	trip, err := l.trips.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, fmt.Errorf("trip %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return trip, nil
}

func (l *Lifecycle) getMatch(ctx context.Context, id string) (*repository.Match, error) {
	m, err := l.matches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, fmt.Errorf("match %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return m, nil
}

func isActiveMatch(s repository.MatchStatus) bool {
	return s == repository.MatchStatusPending ||
		s == repository.MatchStatusClaimed ||
		s == repository.MatchStatusApproved
}

func hasActiveMatchForTrip(matches []*repository.Match, tripID string) bool {
	for _, m := range matches {
		if m.TripID == tripID && m.Status != repository.MatchStatusRejected {
			return true
		}
	}
	return false
}

// pickItems resolves assigned ids against the request's items, failing if
// any id is not part of the bundle.
func pickItems(items []*repository.BagItem, ids []string) ([]*repository.BagItem, error) {
	byID := make(map[string]*repository.BagItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	picked := make([]*repository.BagItem, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: item %s does not belong to this request", ErrValidation, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: item %s assigned twice", ErrValidation, id)
		}
		seen[id] = true
		picked = append(picked, item)
	}
	return picked, nil
}
