package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"github.com/crossbag/backend/internal/db"
	"github.com/crossbag/backend/internal/repository"
)

type RatingRepo struct {
	db db.DB
}

func NewRatingRepo(db db.DB) *RatingRepo {
	return &RatingRepo{db: db}
}

func (r *RatingRepo) Get(ctx context.Context, travelerID string) (*repository.TravelerRating, error) {
	var rating repository.TravelerRating
	err := r.db.Get(ctx, &rating, "SELECT * FROM traveler_ratings WHERE traveler_id = $1", travelerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrObjectNotFound
		}
		return nil, err
	}
	return &rating, nil
}

// Add folds one new rating into the traveler's running mean.
func (r *RatingRepo) Add(ctx context.Context, travelerID string, rating float64) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO traveler_ratings (traveler_id, rating, rating_count)
        VALUES ($1, $2, 1)
        ON CONFLICT (traveler_id) DO UPDATE
        SET
            rating = (traveler_ratings.rating * traveler_ratings.rating_count + $2)
                     / (traveler_ratings.rating_count + 1),
            rating_count = traveler_ratings.rating_count + 1
    `, travelerID, rating)
	return err
}
