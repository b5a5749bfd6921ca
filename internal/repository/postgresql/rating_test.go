package postgresql

import (
	"context"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "github.com/crossbag/backend/internal/db/mocks"
	"github.com/crossbag/backend/internal/repository"
)

func TestRatingRepoGet(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewRatingRepo(mockDB)

		mockDB.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any(), "tr-1").
			DoAndReturn(func(_ context.Context, dest interface{}, _ string, _ ...interface{}) error {
				*dest.(*repository.TravelerRating) = repository.TravelerRating{TravelerID: "tr-1", Rating: 4.2, RatingCount: 5}
				return nil
			})

		rating, err := repo.Get(ctx, "tr-1")
		require.NoError(t, err)
		assert.InDelta(t, 4.2, rating.Rating, 1e-9)
	})

	t.Run("unrated traveler", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewRatingRepo(mockDB)

		mockDB.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any(), "tr-new").
			Return(pgx.ErrNoRows)

		_, err := repo.Get(ctx, "tr-new")
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})
}

func TestRatingRepoAdd(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockDB := mock_database.NewMockDB(ctrl)
	repo := NewRatingRepo(mockDB)

	mockDB.EXPECT().
		Exec(gomock.Any(), gomock.Any(), "tr-1", 4.5).
		Return(pgconn.CommandTag("INSERT 0 1"), nil)

	require.NoError(t, repo.Add(ctx, "tr-1", 4.5))
}
