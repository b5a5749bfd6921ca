package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/crossbag/backend/internal/db"
	"github.com/crossbag/backend/internal/repository"
)

// OutboxTaskCreator is the enqueue half of the outbox repo.
type OutboxTaskCreator interface {
	CreateTx(ctx context.Context, tx db.Tx, task *repository.OutboxTask) error
}

// OutboxNotifier turns lifecycle notifications into outbox tasks, writing
// them inside the caller's transaction so an event commits or rolls back
// together with the state change it announces. The publisher delivers them
// to the broker asynchronously.
type OutboxNotifier struct {
	repo  OutboxTaskCreator
	topic string
}

func NewOutboxNotifier(repo OutboxTaskCreator, topic string) *OutboxNotifier {
	return &OutboxNotifier{repo: repo, topic: topic}
}

func (n *OutboxNotifier) Notify(ctx context.Context, tx db.Tx, payload repository.NotificationPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	task := &repository.OutboxTask{
		Payload: raw,
		Topic:   n.topic,
	}
	if err := n.repo.CreateTx(ctx, tx, task); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}
