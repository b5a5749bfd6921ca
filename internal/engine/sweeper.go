package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crossbag/backend/internal/db"
	"github.com/crossbag/backend/internal/metrics"
	"github.com/crossbag/backend/internal/repository"
)

// SweepRequestRepo is the selection surface the sweeps run over.
type SweepRequestRepo interface {
	GetExpiredCooldowns(ctx context.Context, now time.Time) ([]*repository.ShopperRequest, error)
	GetMissedPurchaseDeadlines(ctx context.Context, now time.Time) ([]*repository.ShopperRequest, error)
	Update(ctx context.Context, req *repository.ShopperRequest) error
	UpdateTx(ctx context.Context, tx db.Tx, req *repository.ShopperRequest) error
}

// Sweeper advances request state as wall-clock deadlines pass: the cooldown
// sweep moves on-hold requests into the purchase phase, the deadline sweep
// cancels requests whose traveler never purchased. Both sweeps are
// idempotent and process each record independently, so one bad record never
// stalls a batch. A sweep that does not run for a while only delays
// transitions; it cannot corrupt state.
type Sweeper struct {
	db       TxBeginner
	requests SweepRequestRepo
	matches  MatchRepo
	notifier Notifier

	cooldownInterval time.Duration
	deadlineInterval time.Duration

	now    func() time.Time
	logger *zap.Logger

	wg             sync.WaitGroup
	shutdownSignal chan struct{}
	stopOnce       sync.Once
}

func NewSweeper(
	database TxBeginner,
	requests SweepRequestRepo,
	matches MatchRepo,
	notifier Notifier,
	cooldownInterval, deadlineInterval time.Duration,
	now func() time.Time,
	logger *zap.Logger,
) *Sweeper {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Sweeper{
		db:               database,
		requests:         requests,
		matches:          matches,
		notifier:         notifier,
		cooldownInterval: cooldownInterval,
		deadlineInterval: deadlineInterval,
		now:              now,
		logger:           logger,
		shutdownSignal:   make(chan struct{}),
	}
}

// Run starts the two periodic sweeps and blocks until the context is
// cancelled or Shutdown is called.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("starting sweeper",
		zap.Duration("cooldown_interval", s.cooldownInterval),
		zap.Duration("deadline_interval", s.deadlineInterval))

	s.wg.Add(2)
	go s.loop(ctx, s.cooldownInterval, "cooldown", func(ctx context.Context) {
		if _, err := s.ProcessExpiredCooldowns(ctx, s.now()); err != nil {
			s.logger.Error("cooldown sweep failed", zap.Error(err))
		}
	})
	go s.loop(ctx, s.deadlineInterval, "deadline", func(ctx context.Context) {
		if _, err := s.ProcessMissedPurchaseDeadlines(ctx, s.now()); err != nil {
			s.logger.Error("deadline sweep failed", zap.Error(err))
		}
	})

	s.wg.Wait()
}

func (s *Sweeper) loop(ctx context.Context, interval time.Duration, name string, sweep func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweep(ctx)
		case <-s.shutdownSignal:
			s.logger.Info("sweep loop stopping", zap.String("sweep", name))
			return
		case <-ctx.Done():
			s.logger.Info("sweep loop context cancelled", zap.String("sweep", name))
			return
		}
	}
}

// Shutdown stops both loops. Safe to call more than once.
func (s *Sweeper) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.shutdownSignal)
		s.wg.Wait()
	})
}

// ProcessExpiredCooldowns advances every on-hold request whose cooldown has
// lapsed into purchase_pending. The cooldownProcessed flag makes a repeat
// run over the same expiry window a no-op. Associated approved matches stay
// approved; they are now in the purchase phase. Returns the number of
// requests advanced.
func (s *Sweeper) ProcessExpiredCooldowns(ctx context.Context, now time.Time) (int, error) {
	reqs, err := s.requests.GetExpiredCooldowns(ctx, now)
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, req := range reqs {
		req.Status = repository.RequestStatusPurchasePending
		req.CooldownProcessed = true
		req.UpdatedAt = now
		if err := s.requests.Update(ctx, req); err != nil {
			s.logger.Error("failed to advance request past cooldown",
				zap.String("request_id", req.ID), zap.Error(err))
			metrics.SweepErrorsTotal.WithLabelValues("cooldown").Inc()
			continue
		}
		advanced++
		metrics.CooldownsProcessedTotal.Inc()
	}

	if advanced > 0 {
		s.logger.Info("cooldown sweep advanced requests", zap.Int("count", advanced))
	}
	return advanced, nil
}

// ProcessMissedPurchaseDeadlines cancels every purchase-pending request
// whose deadline has passed and rejects its approved matches. Each request is
// handled in one transaction with its deadline-miss notices, so a failure
// leaves the record untouched for the next run. Idempotent because a
// cancelled request is never selected again.
func (s *Sweeper) ProcessMissedPurchaseDeadlines(ctx context.Context, now time.Time) (int, error) {
	reqs, err := s.requests.GetMissedPurchaseDeadlines(ctx, now)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, req := range reqs {
		matches, err := s.matches.GetByRequestID(ctx, req.ID)
		if err != nil {
			s.logger.Error("failed to list matches for overdue request",
				zap.String("request_id", req.ID), zap.Error(err))
			metrics.SweepErrorsTotal.WithLabelValues("deadline").Inc()
			continue
		}

		req.Status = repository.RequestStatusCancelled
		req.CancelReason = "purchase deadline missed by traveler"
		req.CooldownEndsAt = nil
		req.PurchaseDeadline = nil
		req.UpdatedAt = now

		err = inTx(ctx, s.db, func(tx db.Tx) error {
			if err := s.requests.UpdateTx(ctx, tx, req); err != nil {
				return fmt.Errorf("failed to cancel request: %w", err)
			}
			for _, m := range matches {
				if m.Status != repository.MatchStatusApproved {
					continue
				}
				m.Status = repository.MatchStatusRejected
				m.UpdatedAt = now
				if err := s.matches.UpdateTx(ctx, tx, m); err != nil {
					return fmt.Errorf("failed to reject match %s: %w", m.ID, err)
				}

				if err := s.notifier.Notify(ctx, tx, repository.NotificationPayload{
					Timestamp: now,
					UserID:    m.TravelerID,
					Template:  "purchase_deadline_missed_traveler",
					MatchID:   m.ID,
					RequestID: req.ID,
					TripID:    m.TripID,
				}); err != nil {
					return fmt.Errorf("failed to enqueue traveler notice: %w", err)
				}
				if err := s.notifier.Notify(ctx, tx, repository.NotificationPayload{
					Timestamp: now,
					UserID:    req.ShopperID,
					Template:  "request_cancelled_deadline",
					MatchID:   m.ID,
					RequestID: req.ID,
					TripID:    m.TripID,
				}); err != nil {
					return fmt.Errorf("failed to enqueue shopper notice: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Error("failed to process overdue request",
				zap.String("request_id", req.ID), zap.Error(err))
			metrics.SweepErrorsTotal.WithLabelValues("deadline").Inc()
			continue
		}
		cancelled++
		metrics.DeadlinesMissedTotal.Inc()
	}

	if cancelled > 0 {
		s.logger.Info("deadline sweep cancelled requests", zap.Int("count", cancelled))
	}
	return cancelled, nil
}
