package repository

import (
	"context"

	"togetherly/internal/domain/entity"
)

type PresenceRepository interface {
	MarkActive(ctx context.Context, userID string) error
	GetPresence(ctx context.Context, userID string) (*entity.UserPresence, error)
	ObservePresence(ctx context.Context, userID string) <-chan PresenceEvent

	SetTyping(ctx context.Context, threadID, userID string) error
	ClearTyping(ctx context.Context, threadID, userID string) error
	ListTyping(ctx context.Context, threadID string) ([]*entity.TypingState, error)
	ObserveTyping(ctx context.Context, threadID string) <-chan TypingEvent
}
