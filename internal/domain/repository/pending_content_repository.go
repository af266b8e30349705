package repository

import (
	"context"

	"togetherly/internal/domain/entity"
)

// Transition reports how a status change ended. Status is the record's status
// after the call, which differs from the requested one when another run
// decided the record first.
type Transition struct {
	Applied bool
	Status  string
}

type PendingContentRepository interface {
	Create(ctx context.Context, pending *entity.PendingContent) error
	GetByID(ctx context.Context, id string) (*entity.PendingContent, error)

	// Approve marks the record approved and, when message is non-nil, creates
	// it in the same commit. Nothing is written if the record already left
	// pending.
	Approve(ctx context.Context, id string, scores *entity.ModerationScores, message *entity.ChatMessage) (Transition, error)
	// Reject marks the record rejected. Nothing is written if the record
	// already left pending.
	Reject(ctx context.Context, id, reason string, scores *entity.ModerationScores) (Transition, error)

	// ObservePendingCreated delivers records that entered the pending set.
	ObservePendingCreated(ctx context.Context) <-chan PendingEvent
}
