package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
)

const (
	userStatusCollection   = "user_status"
	typingStatusCollection = "typing_status"
	typingUsersCollection  = "users"
)

type firestorePresenceRepository struct {
	client *firestore.Client
}

func NewFirestorePresenceRepository(client *firestore.Client) repository.PresenceRepository {
	return &firestorePresenceRepository{
		client: client,
	}
}

func (r *firestorePresenceRepository) typingUsers(threadID string) *firestore.CollectionRef {
	return r.client.Collection(typingStatusCollection).Doc(threadID).Collection(typingUsersCollection)
}

func (r *firestorePresenceRepository) MarkActive(ctx context.Context, userID string) error {
	_, err := r.client.Collection(userStatusCollection).Doc(userID).Set(ctx, map[string]interface{}{
		"lastActive": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to update presence", err)
	}
	return nil
}

func decodePresence(doc *firestore.DocumentSnapshot) (*entity.UserPresence, error) {
	var presence entity.UserPresence
	if err := doc.DataTo(&presence); err != nil {
		return nil, err
	}
	presence.UserID = doc.Ref.ID
	return &presence, nil
}

// GetPresence returns a zero LastActive for users that never reported.
func (r *firestorePresenceRepository) GetPresence(ctx context.Context, userID string) (*entity.UserPresence, error) {
	doc, err := r.client.Collection(userStatusCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &entity.UserPresence{UserID: userID}, nil
		}
		return nil, errors.Internal("Failed to get presence", err)
	}

	presence, err := decodePresence(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse presence", err)
	}
	return presence, nil
}

func (r *firestorePresenceRepository) ObservePresence(ctx context.Context, userID string) <-chan repository.PresenceEvent {
	out := make(chan repository.PresenceEvent, 1)

	go func() {
		defer close(out)

		it := r.client.Collection(userStatusCollection).Doc(userID).Snapshots(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				logger.Error("presence listener for %s failed: %v", userID, err)
				emit(ctx, out, repository.PresenceEvent{Err: errors.Unavailable("Subscription failed", err)})
				return
			}

			presence := &entity.UserPresence{UserID: userID}
			if snap.Exists() {
				decoded, err := decodePresence(snap)
				if err != nil {
					logger.Warn("presence listener skipping malformed status for %s: %v", userID, err)
					continue
				}
				presence = decoded
			}

			if !emit(ctx, out, repository.PresenceEvent{Items: []*entity.UserPresence{presence}}) {
				return
			}
		}
	}()

	return out
}

func (r *firestorePresenceRepository) SetTyping(ctx context.Context, threadID, userID string) error {
	_, err := r.typingUsers(threadID).Doc(userID).Set(ctx, map[string]interface{}{
		"typing":    true,
		"updatedAt": firestore.ServerTimestamp,
	})
	if err != nil {
		return errors.Internal("Failed to update typing status", err)
	}
	return nil
}

func (r *firestorePresenceRepository) ClearTyping(ctx context.Context, threadID, userID string) error {
	if _, err := r.typingUsers(threadID).Doc(userID).Delete(ctx); err != nil {
		return errors.Internal("Failed to clear typing status", err)
	}
	return nil
}

func decodeTyping(threadID string) func(doc *firestore.DocumentSnapshot) (*entity.TypingState, error) {
	return func(doc *firestore.DocumentSnapshot) (*entity.TypingState, error) {
		var state entity.TypingState
		if err := doc.DataTo(&state); err != nil {
			return nil, err
		}
		state.UserID = doc.Ref.ID
		state.ThreadID = threadID
		return &state, nil
	}
}

func (r *firestorePresenceRepository) ListTyping(ctx context.Context, threadID string) ([]*entity.TypingState, error) {
	docs, err := r.typingUsers(threadID).Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list typing status", err)
	}

	decode := decodeTyping(threadID)
	states := make([]*entity.TypingState, 0, len(docs))
	for _, doc := range docs {
		state, err := decode(doc)
		if err != nil {
			continue
		}
		states = append(states, state)
	}
	return states, nil
}

func (r *firestorePresenceRepository) ObserveTyping(ctx context.Context, threadID string) <-chan repository.TypingEvent {
	return observeQuery(ctx, r.typingUsers(threadID).Query, "typing", decodeTyping(threadID))
}
