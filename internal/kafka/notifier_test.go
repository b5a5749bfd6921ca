package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/crossbag/backend/internal/db"
	mock_database "github.com/crossbag/backend/internal/db/mocks"
	"github.com/crossbag/backend/internal/repository"
)

type stubTaskCreator struct {
	gotTx db.Tx
	task  *repository.OutboxTask
	err   error
}

func (s *stubTaskCreator) CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error {
	s.gotTx = tx
	s.task = task
	return s.err
}

func TestOutboxNotifierEnqueuesInCallerTx(t *testing.T) {
	ctrl := gomock.NewController(t)
	tx := mock_database.NewMockTx(ctrl)
	creator := &stubTaskCreator{}
	n := NewOutboxNotifier(creator, "notifications")

	payload := repository.NotificationPayload{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		UserID:    "traveler-1",
		Template:  "booking_confirmed_traveler",
		MatchID:   "m-1",
	}
	require.NoError(t, n.Notify(context.Background(), tx, payload))

	// The insert went through the caller's transaction, not the pool.
	assert.Same(t, tx, creator.gotTx)
	assert.Equal(t, "notifications", creator.task.Topic)

	var decoded repository.NotificationPayload
	require.NoError(t, json.Unmarshal(creator.task.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestOutboxNotifierInsertFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	tx := mock_database.NewMockTx(ctrl)
	creator := &stubTaskCreator{err: assert.AnError}
	n := NewOutboxNotifier(creator, "notifications")

	err := n.Notify(context.Background(), tx, repository.NotificationPayload{UserID: "u-1"})
	assert.ErrorIs(t, err, assert.AnError)
}
