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

func TestMatchRepoCreate(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockDB := mock_database.NewMockDB(ctrl)
	repo := NewMatchRepo(mockDB)

	m := &repository.Match{
		ID:              "m-1",
		RequestID:       "r-1",
		TripID:          "t-1",
		TravelerID:      "tr-1",
		MatchScore:      75,
		AssignedItemIDs: []string{},
		Status:          repository.MatchStatusPending,
	}

	mockDB.EXPECT().
		Exec(gomock.Any(), gomock.Any(),
			m.ID, m.RequestID, m.TripID, m.TravelerID, m.MatchScore, m.AssignedItemIDs,
			m.Status, m.CreatedAt, m.UpdatedAt).
		Return(pgconn.CommandTag("INSERT 0 1"), nil)

	require.NoError(t, repo.Create(ctx, m))
}

func TestMatchRepoGetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewMatchRepo(mockDB)

		mockDB.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any(), "m-1").
			DoAndReturn(func(_ context.Context, dest interface{}, _ string, _ ...interface{}) error {
				*dest.(*repository.Match) = repository.Match{ID: "m-1", Status: repository.MatchStatusClaimed}
				return nil
			})

		m, err := repo.GetByID(ctx, "m-1")
		require.NoError(t, err)
		assert.Equal(t, repository.MatchStatusClaimed, m.Status)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := NewMatchRepo(mockDB)

		mockDB.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any(), "missing").
			Return(pgx.ErrNoRows)

		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})
}

func TestMatchRepoUpdateTx(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockDB := mock_database.NewMockDB(ctrl)
	mockTx := mock_database.NewMockTx(ctrl)
	repo := NewMatchRepo(mockDB)

	m := &repository.Match{ID: "m-1", MatchScore: 75, AssignedItemIDs: []string{"i-1"}, Status: repository.MatchStatusApproved}

	// The write runs on the caller's transaction, not the pool.
	mockTx.EXPECT().
		Exec(gomock.Any(), gomock.Any(), m.MatchScore, m.AssignedItemIDs, m.Status, m.UpdatedAt, m.ID).
		Return(pgconn.CommandTag("UPDATE 1"), nil)

	require.NoError(t, repo.UpdateTx(ctx, mockTx, m))
}

func TestMatchRepoGetByRequestID(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockDB := mock_database.NewMockDB(ctrl)
	repo := NewMatchRepo(mockDB)

	mockDB.EXPECT().
		Select(gomock.Any(), gomock.Any(), gomock.Any(), "r-1").
		DoAndReturn(func(_ context.Context, dest interface{}, _ string, _ ...interface{}) error {
			*dest.(*[]*repository.Match) = []*repository.Match{{ID: "m-1"}, {ID: "m-2"}}
			return nil
		})

	matches, err := repo.GetByRequestID(ctx, "r-1")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
