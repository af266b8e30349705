package repository

import (
	"context"

	"togetherly/internal/domain/entity"
)

type ChatRepository interface {
	GetThread(ctx context.Context, id string) (*entity.ChatThread, error)
	// GetOrCreateThread returns the existing thread for thread.PairKey, or
	// creates thread. The bool reports whether a new thread was written.
	GetOrCreateThread(ctx context.Context, thread *entity.ChatThread) (*entity.ChatThread, bool, error)
	ListThreadsByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.ChatThread, int64, error)

	// AppendMessage writes the message and the thread summary in one
	// transaction and returns the updated thread.
	AppendMessage(ctx context.Context, threadID string, message *entity.ChatMessage) (*entity.ChatThread, error)
	ListMessages(ctx context.Context, threadID string, limit, offset int) ([]*entity.ChatMessage, int64, error)
	MarkThreadRead(ctx context.Context, threadID, userID string) error
	SetReaction(ctx context.Context, threadID, messageID, userID, emoji string) error

	// Messages routed by the moderation gate into chat_messages.
	ListRoutedMessages(ctx context.Context, threadID string, limit int) ([]*entity.ChatMessage, error)

	ObserveThreads(ctx context.Context, userID string) <-chan ThreadsEvent
	ObserveMessages(ctx context.Context, threadID string) <-chan MessagesEvent
}
