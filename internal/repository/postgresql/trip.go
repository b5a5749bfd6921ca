package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"github.com/crossbag/backend/internal/db"
	"github.com/crossbag/backend/internal/repository"
)

type TripRepo struct {
	db db.DB
}

func NewTripRepo(db db.DB) *TripRepo {
	return &TripRepo{db: db}
}

func (r *TripRepo) Create(ctx context.Context, trip *repository.Trip) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO trips (
            id, traveler_id, origin_country, dest_country, departure_at, arrival_at,
            available_carry_on_kg, available_checked_kg, fragile_ok, special_delivery_ok,
            status, version, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `, trip.ID, trip.TravelerID, trip.OriginCountry, trip.DestCountry, trip.DepartureAt, trip.ArrivalAt,
		trip.AvailableCarryOnKg, trip.AvailableCheckedKg, trip.FragileOk, trip.SpecialDeliveryOk,
		trip.Status, trip.Version, trip.CreatedAt, trip.UpdatedAt)
	return err
}

func (r *TripRepo) GetByID(ctx context.Context, id string) (*repository.Trip, error) {
	var trip repository.Trip
	err := r.db.Get(ctx, &trip, "SELECT * FROM trips WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &trip, nil
}

// GetByRoute returns pending and active trips on the exact route, earliest
// departure first.
func (r *TripRepo) GetByRoute(ctx context.Context, origin, dest string) ([]*repository.Trip, error) {
	var trips []*repository.Trip
	err := r.db.Select(ctx, &trips, `
        SELECT * FROM trips
        WHERE origin_country = $1 AND dest_country = $2 AND status IN ($3, $4)
        ORDER BY departure_at ASC
    `, origin, dest, repository.TripStatusPending, repository.TripStatusActive)
	return trips, err
}

func (r *TripRepo) Update(ctx context.Context, trip *repository.Trip) error {
	_, err := r.db.Exec(ctx, `
        UPDATE trips
        SET status = $1, updated_at = $2
        WHERE id = $3
    `, trip.Status, trip.UpdatedAt, trip.ID)
	return err
}

// UpdateCapacity writes the trip's capacity fields only if the row version
// is unchanged since the read, bumping the version on success. Two claims
// racing on the same trip cannot both win; the loser gets
// ErrVersionConflict.
func (r *TripRepo) UpdateCapacity(ctx context.Context, trip *repository.Trip) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE trips
        SET
            available_carry_on_kg = $1,
            available_checked_kg = $2,
            version = version + 1,
            updated_at = $3
        WHERE id = $4 AND version = $5
    `, trip.AvailableCarryOnKg, trip.AvailableCheckedKg, trip.UpdatedAt, trip.ID, trip.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrVersionConflict
	}
	trip.Version++
	return nil
}
