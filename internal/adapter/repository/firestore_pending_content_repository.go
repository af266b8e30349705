package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
)

const pendingContentCollection = "pending_content"

type firestorePendingContentRepository struct {
	client *firestore.Client
}

func NewFirestorePendingContentRepository(client *firestore.Client) repository.PendingContentRepository {
	return &firestorePendingContentRepository{
		client: client,
	}
}

func decodePending(doc *firestore.DocumentSnapshot) (*entity.PendingContent, error) {
	var pending entity.PendingContent
	if err := doc.DataTo(&pending); err != nil {
		return nil, err
	}
	if pending.ID == "" {
		pending.ID = doc.Ref.ID
	}
	return &pending, nil
}

func (r *firestorePendingContentRepository) Create(ctx context.Context, pending *entity.PendingContent) error {
	if pending.ID == "" {
		pending.ID = uuid.New().String()
	}
	if pending.Status == "" {
		pending.Status = entity.PendingStatusPending
	}
	pending.CreatedAt = time.Now()

	_, err := r.client.Collection(pendingContentCollection).Doc(pending.ID).Create(ctx, pending)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Pending content already exists")
		}
		return errors.Internal("Failed to stage content", err)
	}
	return nil
}

func (r *firestorePendingContentRepository) GetByID(ctx context.Context, id string) (*entity.PendingContent, error) {
	doc, err := r.client.Collection(pendingContentCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Pending content", err)
		}
		return nil, errors.Internal("Failed to get pending content", err)
	}

	pending, err := decodePending(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse pending content", err)
	}
	return pending, nil
}

// transition runs the one-way status change to target inside a transaction.
// write is only called while the record is still pending.
func (r *firestorePendingContentRepository) transition(ctx context.Context, id, target string, write func(tx *firestore.Transaction, ref *firestore.DocumentRef) error) (repository.Transition, error) {
	var result repository.Transition

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result = repository.Transition{}
		ref := r.client.Collection(pendingContentCollection).Doc(id)

		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Pending content", err)
			}
			return err
		}

		pending, err := decodePending(snap)
		if err != nil {
			return err
		}
		result.Status = pending.Status
		if pending.IsTerminal() {
			return nil
		}

		result = repository.Transition{Applied: true, Status: target}
		return write(tx, ref)
	})
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return repository.Transition{}, appErr
		}
		return repository.Transition{}, errors.Internal("Failed to update pending content", err)
	}
	return result, nil
}

func (r *firestorePendingContentRepository) Approve(ctx context.Context, id string, scores *entity.ModerationScores, message *entity.ChatMessage) (repository.Transition, error) {
	return r.transition(ctx, id, entity.PendingStatusApproved, func(tx *firestore.Transaction, ref *firestore.DocumentRef) error {
		if message != nil {
			if message.ID == "" {
				message.ID = uuid.New().String()
			}
			msgRef := r.client.Collection(routedMessagesCollection).Doc(message.ID)
			if err := tx.Create(msgRef, message); err != nil {
				return err
			}
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: entity.PendingStatusApproved},
			{Path: "scores", Value: scores},
			{Path: "reviewedAt", Value: firestore.ServerTimestamp},
		})
	})
}

func (r *firestorePendingContentRepository) Reject(ctx context.Context, id, reason string, scores *entity.ModerationScores) (repository.Transition, error) {
	return r.transition(ctx, id, entity.PendingStatusRejected, func(tx *firestore.Transaction, ref *firestore.DocumentRef) error {
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: entity.PendingStatusRejected},
			{Path: "rejectReason", Value: reason},
			{Path: "scores", Value: scores},
			{Path: "reviewedAt", Value: firestore.ServerTimestamp},
		})
	})
}

// ObservePendingCreated emits the documents added to the pending set since the
// previous snapshot. The first snapshot carries the whole backlog.
func (r *firestorePendingContentRepository) ObservePendingCreated(ctx context.Context) <-chan repository.PendingEvent {
	out := make(chan repository.PendingEvent, 1)
	query := r.client.Collection(pendingContentCollection).Where("status", "==", entity.PendingStatusPending)

	go func() {
		defer close(out)

		it := query.Snapshots(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				logger.Error("pending_content listener failed: %v", err)
				emit(ctx, out, repository.PendingEvent{Err: errors.Unavailable("Pending content listener failed", err)})
				return
			}

			var added []*entity.PendingContent
			for _, change := range snap.Changes {
				if change.Kind != firestore.DocumentAdded {
					continue
				}
				pending, err := decodePending(change.Doc)
				if err != nil {
					logger.Warn("pending_content listener skipping %s: %v", change.Doc.Ref.ID, err)
					continue
				}
				added = append(added, pending)
			}
			if len(added) == 0 {
				continue
			}

			if !emit(ctx, out, repository.PendingEvent{Items: added}) {
				return
			}
		}
	}()

	return out
}
