package repository

import "togetherly/internal/domain/entity"

// Event is one delivery from a long-lived subscription. A non-nil Err means
// the listener failed; the channel is closed right after it.
type Event[T any] struct {
	Items []T
	Err   error
}

type (
	ThreadsEvent  = Event[*entity.ChatThread]
	MessagesEvent = Event[*entity.ChatMessage]
	TypingEvent   = Event[*entity.TypingState]
	PresenceEvent = Event[*entity.UserPresence]
	PendingEvent  = Event[*entity.PendingContent]
)
