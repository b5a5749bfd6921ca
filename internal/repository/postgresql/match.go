package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"github.com/crossbag/backend/internal/db"
	"github.com/crossbag/backend/internal/repository"
)

type MatchRepo struct {
	db db.DB
}

func NewMatchRepo(db db.DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// Create is append-only. Duplicate avoidance for the (request, trip) pair is
// the engine's responsibility via lookup-before-create.
func (r *MatchRepo) Create(ctx context.Context, m *repository.Match) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO matches (
            id, request_id, trip_id, traveler_id, match_score, assigned_item_ids,
            status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, m.ID, m.RequestID, m.TripID, m.TravelerID, m.MatchScore, m.AssignedItemIDs,
		m.Status, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *MatchRepo) GetByID(ctx context.Context, id string) (*repository.Match, error) {
	var m repository.Match
	err := r.db.Get(ctx, &m, "SELECT * FROM matches WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MatchRepo) GetByRequestID(ctx context.Context, requestID string) ([]*repository.Match, error) {
	var matches []*repository.Match
	err := r.db.Select(ctx, &matches,
		"SELECT * FROM matches WHERE request_id = $1 ORDER BY created_at ASC", requestID)
	return matches, err
}

func (r *MatchRepo) GetByTripID(ctx context.Context, tripID string) ([]*repository.Match, error) {
	var matches []*repository.Match
	err := r.db.Select(ctx, &matches,
		"SELECT * FROM matches WHERE trip_id = $1 ORDER BY created_at ASC", tripID)
	return matches, err
}

func (r *MatchRepo) Update(ctx context.Context, m *repository.Match) error {
	return r.update(ctx, r.db, m)
}

// UpdateTx writes the match inside the caller's transaction.
func (r *MatchRepo) UpdateTx(ctx context.Context, tx db.Tx, m *repository.Match) error {
	return r.update(ctx, tx, m)
}

func (r *MatchRepo) update(ctx context.Context, ex execer, m *repository.Match) error {
	_, err := ex.Exec(ctx, `
        UPDATE matches
        SET
            match_score = $1,
            assigned_item_ids = $2,
            status = $3,
            updated_at = $4
        WHERE id = $5
    `, m.MatchScore, m.AssignedItemIDs, m.Status, m.UpdatedAt, m.ID)
	return err
}
