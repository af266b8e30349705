package usecase

import (
	"context"
	"strings"
	"unicode/utf8"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/internal/infrastructure/metrics"
	"togetherly/internal/infrastructure/ratelimit"
	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
)

const (
	maxMessageLength  = 4000
	maxReactionRunes  = 8
	roomMessagesLimit = 100
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	rateLimiter *ratelimit.RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		rateLimiter: rateLimiter,
	}
}

type SendMessageInput struct {
	Text      string
	MediaURL  string
	MediaType string
}

// StartOrGetThread returns the thread between the caller and the user with
// otherEmail, creating it with zeroed counters on first contact. The bool is
// true when a new thread was created.
func (uc *ChatUseCase) StartOrGetThread(ctx context.Context, userID, otherEmail string) (*entity.ChatThread, bool, error) {
	if userID == "" {
		return nil, false, errors.Unauthorized("Authentication required", nil)
	}
	if allowed, _ := uc.rateLimiter.Allow(userID, ratelimit.ActionStartThread); !allowed {
		return nil, false, errors.TooManyRequests("Too many new conversations, please wait")
	}

	me, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, false, errors.BadRequest("Profile not found, sync your profile first", err)
		}
		return nil, false, err
	}

	other, err := uc.userRepo.GetByEmail(ctx, otherEmail)
	if err != nil {
		return nil, false, err
	}
	if other.ID == me.ID {
		return nil, false, errors.BadRequest("Cannot start a conversation with yourself", nil)
	}

	thread, created, err := uc.chatRepo.GetOrCreateThread(ctx, entity.NewDirectThread(me, other))
	if err != nil {
		return nil, false, err
	}

	if created {
		logger.Info("Thread %s created between %s and %s", thread.ID, me.ID, other.ID)
	}
	return thread, created, nil
}

// SendMessage appends a message to a thread the caller participates in and
// updates the thread summary in the same transaction.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID, threadID string, input SendMessageInput) (*entity.ChatMessage, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	text := strings.TrimSpace(input.Text)
	if text == "" && input.MediaURL == "" {
		return nil, errors.BadRequest("Message must contain text or media", nil)
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return nil, errors.BadRequest("Message is too long", nil)
	}
	if input.MediaURL != "" && input.MediaType != entity.MediaTypeImage && input.MediaType != entity.MediaTypeVideo {
		return nil, errors.BadRequest("Media type must be image or video", nil)
	}

	if allowed, _ := uc.rateLimiter.Allow(userID, ratelimit.ActionSendMessage); !allowed {
		return nil, errors.TooManyRequests("Too many messages, please slow down")
	}

	thread, err := uc.participantThread(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}

	message := &entity.ChatMessage{
		SenderID:   userID,
		SenderName: thread.ParticipantNames[userID],
		Text:       text,
		MediaURL:   input.MediaURL,
	}
	if input.MediaURL != "" {
		message.MediaType = input.MediaType
	}

	if _, err := uc.chatRepo.AppendMessage(ctx, threadID, message); err != nil {
		return nil, err
	}

	metrics.MessagesSent.Inc()
	return message, nil
}

func (uc *ChatUseCase) ListThreads(ctx context.Context, userID string, limit, offset int) ([]*entity.ChatThread, int64, error) {
	if userID == "" {
		return nil, 0, errors.Unauthorized("Authentication required", nil)
	}
	return uc.chatRepo.ListThreadsByUser(ctx, userID, limit, offset)
}

func (uc *ChatUseCase) GetThread(ctx context.Context, userID, threadID string) (*entity.ChatThread, error) {
	return uc.participantThread(ctx, userID, threadID)
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, userID, threadID string, limit, offset int) ([]*entity.ChatMessage, int64, error) {
	if _, err := uc.participantThread(ctx, userID, threadID); err != nil {
		return nil, 0, err
	}
	return uc.chatRepo.ListMessages(ctx, threadID, limit, offset)
}

// ListRoomMessages lists the moderated messages routed into the thread.
func (uc *ChatUseCase) ListRoomMessages(ctx context.Context, userID, threadID string, limit int) ([]*entity.ChatMessage, error) {
	if _, err := uc.participantThread(ctx, userID, threadID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > roomMessagesLimit {
		limit = roomMessagesLimit
	}
	return uc.chatRepo.ListRoutedMessages(ctx, threadID, limit)
}

// MarkThreadRead clears the caller's unread counter and records read
// receipts on recent messages.
func (uc *ChatUseCase) MarkThreadRead(ctx context.Context, userID, threadID string) error {
	if _, err := uc.participantThread(ctx, userID, threadID); err != nil {
		return err
	}
	return uc.chatRepo.MarkThreadRead(ctx, threadID, userID)
}

// ReactToMessage sets the caller's single reaction on a message. An empty
// emoji removes it.
func (uc *ChatUseCase) ReactToMessage(ctx context.Context, userID, threadID, messageID, emoji string) error {
	emoji = strings.TrimSpace(emoji)
	if utf8.RuneCountInString(emoji) > maxReactionRunes {
		return errors.BadRequest("Reaction is too long", nil)
	}
	if _, err := uc.participantThread(ctx, userID, threadID); err != nil {
		return err
	}
	return uc.chatRepo.SetReaction(ctx, threadID, messageID, userID, emoji)
}

func (uc *ChatUseCase) ObserveThreads(ctx context.Context, userID string) (<-chan repository.ThreadsEvent, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	return uc.chatRepo.ObserveThreads(ctx, userID), nil
}

func (uc *ChatUseCase) ObserveMessages(ctx context.Context, userID, threadID string) (<-chan repository.MessagesEvent, error) {
	if _, err := uc.participantThread(ctx, userID, threadID); err != nil {
		return nil, err
	}
	return uc.chatRepo.ObserveMessages(ctx, threadID), nil
}

func (uc *ChatUseCase) participantThread(ctx context.Context, userID, threadID string) (*entity.ChatThread, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if threadID == "" {
		return nil, errors.BadRequest("Thread ID is required", nil)
	}

	thread, err := uc.chatRepo.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this thread", nil)
	}
	return thread, nil
}
