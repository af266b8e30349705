package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
)

const (
	threadsCollection        = "chatThreads"
	messagesSubcollection    = "messages"
	routedMessagesCollection = "chat_messages"

	// readReceiptWindow caps how many recent messages MarkThreadRead touches.
	readReceiptWindow = 50
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) threads() *firestore.CollectionRef {
	return r.client.Collection(threadsCollection)
}

func (r *firestoreChatRepository) messages(threadID string) *firestore.CollectionRef {
	return r.threads().Doc(threadID).Collection(messagesSubcollection)
}

func decodeThread(doc *firestore.DocumentSnapshot) (*entity.ChatThread, error) {
	var thread entity.ChatThread
	if err := doc.DataTo(&thread); err != nil {
		return nil, err
	}
	if thread.ID == "" {
		thread.ID = doc.Ref.ID
	}
	return &thread, nil
}

func decodeMessage(doc *firestore.DocumentSnapshot) (*entity.ChatMessage, error) {
	var message entity.ChatMessage
	if err := doc.DataTo(&message); err != nil {
		return nil, err
	}
	if message.ID == "" {
		message.ID = doc.Ref.ID
	}
	return &message, nil
}

func (r *firestoreChatRepository) GetThread(ctx context.Context, id string) (*entity.ChatThread, error) {
	doc, err := r.threads().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Thread", err)
		}
		return nil, errors.Internal("Failed to get thread", err)
	}

	thread, err := decodeThread(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse thread data", err)
	}
	return thread, nil
}

// GetOrCreateThread looks up the pair key and creates the thread inside one
// transaction. New threads use the pair key as document ID, so a concurrent
// creator loses with AlreadyExists and then reads the winner's thread.
func (r *firestoreChatRepository) GetOrCreateThread(ctx context.Context, thread *entity.ChatThread) (*entity.ChatThread, bool, error) {
	if thread.ID == "" {
		thread.ID = thread.PairKey
	}

	var result *entity.ChatThread
	created := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		result, created = nil, false

		docs, err := tx.Documents(r.threads().Where("pairKey", "==", thread.PairKey).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			existing, err := decodeThread(docs[0])
			if err != nil {
				return err
			}
			result = existing
			return nil
		}

		now := time.Now()
		thread.CreatedAt = now
		thread.UpdatedAt = now
		thread.LastMessageAt = now
		result = thread
		created = true
		return tx.Create(r.threads().Doc(thread.ID), thread)
	})

	if status.Code(err) == codes.AlreadyExists {
		logger.Info("GetOrCreateThread: thread %s created concurrently, reusing it", thread.ID)
		existing, getErr := r.GetThread(ctx, thread.ID)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, errors.Internal("Failed to start thread", err)
	}

	return result, created, nil
}

func (r *firestoreChatRepository) ListThreadsByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.ChatThread, int64, error) {
	query := r.threads().Where("participants", "array-contains", userID).OrderBy("lastMessageAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching threads for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to fetch threads", err)
	}

	total := int64(len(allDocs))

	// Pagination in-memory, the count needs the full result anyway
	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	threads := make([]*entity.ChatThread, 0, end-start)
	for _, doc := range allDocs[start:end] {
		thread, err := decodeThread(doc)
		if err != nil {
			logger.Warn("Error parsing thread %s for user %s: %v", doc.Ref.ID, userID, err)
			continue
		}
		threads = append(threads, thread)
	}

	return threads, total, nil
}

func (r *firestoreChatRepository) AppendMessage(ctx context.Context, threadID string, message *entity.ChatMessage) (*entity.ChatThread, error) {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.ThreadID = threadID
	if message.ReadBy == nil {
		message.ReadBy = []string{message.SenderID}
	}

	var updated *entity.ChatThread
	var sentAt time.Time

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		threadRef := r.threads().Doc(threadID)

		snap, err := tx.Get(threadRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Thread", err)
			}
			return err
		}

		thread, err := decodeThread(snap)
		if err != nil {
			return err
		}
		if !thread.HasParticipant(message.SenderID) {
			return errors.Forbidden("User is not a participant in this thread", nil)
		}

		sentAt = time.Now()
		thread.ApplySend(message.SenderID, message.Preview(), sentAt)

		if err := tx.Create(threadRef.Collection(messagesSubcollection).Doc(message.ID), message); err != nil {
			return err
		}

		updated = thread
		return tx.Update(threadRef, []firestore.Update{
			{Path: "lastMessage", Value: thread.LastMessage},
			{Path: "lastMessageAt", Value: firestore.ServerTimestamp},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
			{Path: "unreadCount", Value: thread.UnreadCount},
		})
	})
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr
		}
		logger.Error("AppendMessage: transaction failed for thread %s: %v", threadID, err)
		return nil, errors.Internal("Failed to send message", err)
	}

	// The stored timestamp is server-assigned; mirror it locally for the caller.
	message.CreatedAt = sentAt
	return updated, nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, threadID string, limit, offset int) ([]*entity.ChatMessage, int64, error) {
	query := r.messages(threadID).OrderBy("createdAt", firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while counting messages for thread %s: %v", threadID, err)
		return nil, 0, errors.Internal("Failed to count messages for thread", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var messages []*entity.ChatMessage
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for thread %s: %v", threadID, err)
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		message, err := decodeMessage(doc)
		if err != nil {
			logger.Error("Error parsing message data for thread %s: %v", threadID, err)
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, message)
	}

	return messages, total, nil
}

func (r *firestoreChatRepository) MarkThreadRead(ctx context.Context, threadID, userID string) error {
	threadRef := r.threads().Doc(threadID)
	_, err := threadRef.Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"unreadCount", userID}, Value: 0},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Thread", err)
		}
		return errors.Internal("Failed to reset unread count", err)
	}

	docs, err := r.messages(threadID).OrderBy("createdAt", firestore.Desc).Limit(readReceiptWindow).Documents(ctx).GetAll()
	if err != nil {
		// The counter is already reset; read receipts are best effort.
		logger.Warn("MarkThreadRead: could not load recent messages for thread %s: %v", threadID, err)
		return nil
	}

	bw := r.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for _, doc := range docs {
		message, err := decodeMessage(doc)
		if err != nil || message.IsReadBy(userID) {
			continue
		}
		job, err := bw.Update(doc.Ref, []firestore.Update{
			{Path: "readBy", Value: firestore.ArrayUnion(userID)},
		})
		if err != nil {
			logger.Warn("MarkThreadRead: could not enqueue read receipt for message %s: %v", doc.Ref.ID, err)
			continue
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			logger.Warn("MarkThreadRead: read receipt failed in thread %s: %v", threadID, err)
		}
	}

	return nil
}

func (r *firestoreChatRepository) SetReaction(ctx context.Context, threadID, messageID, userID, emoji string) error {
	var value interface{} = emoji
	if emoji == "" {
		value = firestore.Delete
	}

	_, err := r.messages(threadID).Doc(messageID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"reactions", userID}, Value: value},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Message", err)
		}
		return errors.Internal("Failed to update reaction", err)
	}
	return nil
}

func (r *firestoreChatRepository) ListRoutedMessages(ctx context.Context, threadID string, limit int) ([]*entity.ChatMessage, error) {
	query := r.client.Collection(routedMessagesCollection).
		Where("threadId", "==", threadID).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch moderated messages", err)
	}

	messages := make([]*entity.ChatMessage, 0, len(docs))
	for _, doc := range docs {
		message, err := decodeMessage(doc)
		if err != nil {
			logger.Warn("Skipping malformed moderated message %s: %v", doc.Ref.ID, err)
			continue
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func (r *firestoreChatRepository) ObserveThreads(ctx context.Context, userID string) <-chan repository.ThreadsEvent {
	query := r.threads().Where("participants", "array-contains", userID).OrderBy("lastMessageAt", firestore.Desc)
	return observeQuery(ctx, query, "threads", decodeThread)
}

func (r *firestoreChatRepository) ObserveMessages(ctx context.Context, threadID string) <-chan repository.MessagesEvent {
	query := r.messages(threadID).OrderBy("createdAt", firestore.Asc)
	return observeQuery(ctx, query, "messages", decodeMessage)
}
