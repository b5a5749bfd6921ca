package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/crossbag/backend/internal/db"
	"github.com/crossbag/backend/internal/repository"
)

// execer is the write surface shared by db.DB and db.Tx, so update
// statements can run either standalone or inside a caller's transaction.
type execer interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
}

type RequestRepo struct {
	db db.DB
}

func NewRequestRepo(db db.DB) *RequestRepo {
	return &RequestRepo{db: db}
}

// Create inserts the request and its bag items in one transaction so a
// request can never exist without its bundle.
func (r *RequestRepo) Create(ctx context.Context, req *repository.ShopperRequest, items []*repository.BagItem) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	_, err = tx.Exec(ctx, `
        INSERT INTO shopper_requests (
            id, shopper_id, origin_country, dest_country, delivery_from, delivery_to,
            status, item_cost, delivery_fee, service_fee, tax,
            cooldown_ends_at, purchase_deadline, cooldown_processed, cancel_reason,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
    `, req.ID, req.ShopperID, req.OriginCountry, req.DestCountry, req.DeliveryFrom, req.DeliveryTo,
		req.Status, req.ItemCost, req.DeliveryFee, req.ServiceFee, req.Tax,
		req.CooldownEndsAt, req.PurchaseDeadline, req.CooldownProcessed, req.CancelReason,
		req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}

	for _, item := range items {
		_, err = tx.Exec(ctx, `
            INSERT INTO bag_items (
                id, request_id, name, price, currency, weight_kg, quantity,
                fragile, special_delivery, special_category
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        `, item.ID, item.RequestID, item.Name, item.Price, item.Currency, item.WeightKg,
			item.Quantity, item.Fragile, item.SpecialDelivery, item.SpecialCategory)
		if err != nil {
			return fmt.Errorf("failed to insert bag item %s: %w", item.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (r *RequestRepo) GetByID(ctx context.Context, id string) (*repository.ShopperRequest, error) {
	var req repository.ShopperRequest
	err := r.db.Get(ctx, &req, "SELECT * FROM shopper_requests WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepo) GetItems(ctx context.Context, requestID string) ([]*repository.BagItem, error) {
	var items []*repository.BagItem
	err := r.db.Select(ctx, &items, "SELECT * FROM bag_items WHERE request_id = $1 ORDER BY id", requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bag items for request %s: %w", requestID, err)
	}
	return items, nil
}

func (r *RequestRepo) Update(ctx context.Context, req *repository.ShopperRequest) error {
	return r.update(ctx, r.db, req)
}

// UpdateTx writes the request inside the caller's transaction, used where a
// state change must commit together with its outbox events.
func (r *RequestRepo) UpdateTx(ctx context.Context, tx db.Tx, req *repository.ShopperRequest) error {
	return r.update(ctx, tx, req)
}

func (r *RequestRepo) update(ctx context.Context, ex execer, req *repository.ShopperRequest) error {
	_, err := ex.Exec(ctx, `
        UPDATE shopper_requests
        SET
            status = $1,
            cooldown_ends_at = $2,
            purchase_deadline = $3,
            cooldown_processed = $4,
            cancel_reason = $5,
            updated_at = $6
        WHERE id = $7
    `, req.Status, req.CooldownEndsAt, req.PurchaseDeadline, req.CooldownProcessed,
		req.CancelReason, req.UpdatedAt, req.ID)
	return err
}

// GetExpiredCooldowns returns on-hold requests whose cooldown has lapsed and
// that have not been advanced yet.
func (r *RequestRepo) GetExpiredCooldowns(ctx context.Context, now time.Time) ([]*repository.ShopperRequest, error) {
	var reqs []*repository.ShopperRequest
	err := r.db.Select(ctx, &reqs, `
        SELECT * FROM shopper_requests
        WHERE status = $1 AND cooldown_ends_at <= $2 AND cooldown_processed = FALSE
        ORDER BY cooldown_ends_at ASC
    `, repository.RequestStatusOnHold, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired cooldowns: %w", err)
	}
	return reqs, nil
}

// GetMissedPurchaseDeadlines returns purchase-pending requests whose
// purchase deadline has lapsed.
func (r *RequestRepo) GetMissedPurchaseDeadlines(ctx context.Context, now time.Time) ([]*repository.ShopperRequest, error) {
	var reqs []*repository.ShopperRequest
	err := r.db.Select(ctx, &reqs, `
        SELECT * FROM shopper_requests
        WHERE status = $1 AND purchase_deadline <= $2
        ORDER BY purchase_deadline ASC
    `, repository.RequestStatusPurchasePending, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get missed purchase deadlines: %w", err)
	}
	return reqs, nil
}
