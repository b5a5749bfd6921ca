package postgresql

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "github.com/crossbag/backend/internal/db/mocks"
	"github.com/crossbag/backend/internal/repository"
)

func TestTripRepoGetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewTripRepo(mockDB)

		mockDB.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any(), "t-1").
			DoAndReturn(func(_ context.Context, dest interface{}, _ string, _ ...interface{}) error {
				*dest.(*repository.Trip) = repository.Trip{ID: "t-1", TravelerID: "tr-1", Version: 3}
				return nil
			})

		trip, err := repo.GetByID(ctx, "t-1")
		require.NoError(t, err)
		assert.Equal(t, "t-1", trip.ID)
		assert.Equal(t, int64(3), trip.Version)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewTripRepo(mockDB)

		mockDB.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any(), "missing").
			Return(pgx.ErrNoRows)

		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})
}

func TestTripRepoUpdateCapacity(t *testing.T) {
	ctx := context.Background()
	trip := &repository.Trip{
		ID:                 "t-1",
		AvailableCarryOnKg: 5,
		AvailableCheckedKg: 18,
		Version:            2,
		UpdatedAt:          time.Now().UTC(),
	}

	t.Run("version matches", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewTripRepo(mockDB)

		mockDB.EXPECT().
			Exec(gomock.Any(), gomock.Any(),
				trip.AvailableCarryOnKg, trip.AvailableCheckedKg, trip.UpdatedAt, trip.ID, int64(2)).
			Return(pgconn.CommandTag("UPDATE 1"), nil)

		cp := *trip
		require.NoError(t, repo.UpdateCapacity(ctx, &cp))
		assert.Equal(t, int64(3), cp.Version)
	})

	t.Run("concurrent claim won", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewTripRepo(mockDB)

		mockDB.EXPECT().
			Exec(gomock.Any(), gomock.Any(),
				gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(pgconn.CommandTag("UPDATE 0"), nil)

		cp := *trip
		err := repo.UpdateCapacity(ctx, &cp)
		assert.ErrorIs(t, err, repository.ErrVersionConflict)
		assert.Equal(t, int64(2), cp.Version)
	})
}

func TestTripRepoGetByRoute(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockDB := mock_database.NewMockDB(ctrl)
	repo := NewTripRepo(mockDB)

	mockDB.EXPECT().
		Select(gomock.Any(), gomock.Any(), gomock.Any(),
			"US", "BR", repository.TripStatusPending, repository.TripStatusActive).
		DoAndReturn(func(_ context.Context, dest interface{}, _ string, _ ...interface{}) error {
			*dest.(*[]*repository.Trip) = []*repository.Trip{{ID: "t-1"}, {ID: "t-2"}}
			return nil
		})

	trips, err := repo.GetByRoute(ctx, "US", "BR")
	require.NoError(t, err)
	assert.Len(t, trips, 2)
}
