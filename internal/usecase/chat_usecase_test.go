package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"togetherly/internal/domain/entity"
	"togetherly/internal/infrastructure/ratelimit"
	"togetherly/pkg/errors"
)

func newChat() (*ChatUseCase, *fakeChatRepo) {
	chatRepo := newFakeChatRepo()
	uc := NewChatUseCase(chatRepo, newFakeUserRepo(alice(), bob()), ratelimit.NewRateLimiter())
	return uc, chatRepo
}

func TestStartOrGetThread_CreatesWithZeroCounters(t *testing.T) {
	uc, _ := newChat()

	thread, created, err := uc.StartOrGetThread(context.Background(), "alice", "bob@example.com")
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, "alice_bob", thread.PairKey)
	assert.ElementsMatch(t, []string{"alice", "bob"}, thread.Participants)
	assert.Equal(t, map[string]int{"alice": 0, "bob": 0}, thread.UnreadCount)
	assert.Equal(t, "Bob", thread.ParticipantNames["bob"])
	assert.Equal(t, "alice@example.com", thread.ParticipantEmails["alice"])
}

func TestStartOrGetThread_ReturnsExistingUnchanged(t *testing.T) {
	uc, repo := newChat()

	existing := entity.NewDirectThread(alice(), bob())
	existing.ID = "legacy-random-id"
	existing.LastMessage = "see you"
	existing.UnreadCount["alice"] = 3
	repo.addThread(existing)

	thread, created, err := uc.StartOrGetThread(context.Background(), "bob", "alice@example.com")
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, "legacy-random-id", thread.ID)
	assert.Equal(t, "see you", thread.LastMessage)
	assert.Equal(t, 3, thread.UnreadCount["alice"])
	assert.Len(t, repo.threads, 1)
}

func TestStartOrGetThread_Errors(t *testing.T) {
	uc, _ := newChat()

	_, _, err := uc.StartOrGetThread(context.Background(), "", "bob@example.com")
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))

	_, _, err = uc.StartOrGetThread(context.Background(), "alice", "nobody@example.com")
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	_, _, err = uc.StartOrGetThread(context.Background(), "alice", "alice@example.com")
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestSendMessage_UpdatesUnreadCounters(t *testing.T) {
	uc, repo := newChat()

	thread := entity.NewDirectThread(alice(), bob())
	thread.UnreadCount = map[string]int{"alice": 2, "bob": 5}
	repo.addThread(thread)

	msg, err := uc.SendMessage(context.Background(), "alice", thread.ID, SendMessageInput{Text: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "alice", msg.SenderID)
	assert.Equal(t, "Alice", msg.SenderName)
	assert.Equal(t, []string{"alice"}, msg.ReadBy)

	stored, _ := repo.GetThread(context.Background(), thread.ID)
	assert.Equal(t, 0, stored.UnreadCount["alice"])
	assert.Equal(t, 6, stored.UnreadCount["bob"])
	assert.Equal(t, "hi", stored.LastMessage)
}

func TestSendMessage_MediaPreview(t *testing.T) {
	uc, repo := newChat()
	thread := entity.NewDirectThread(alice(), bob())
	repo.addThread(thread)

	_, err := uc.SendMessage(context.Background(), "bob", thread.ID, SendMessageInput{
		MediaURL:  "https://storage.googleapis.com/b/public/chat-media/bob/x.jpg",
		MediaType: entity.MediaTypeImage,
	})
	require.NoError(t, err)

	stored, _ := repo.GetThread(context.Background(), thread.ID)
	assert.Equal(t, "[image]", stored.LastMessage)
	assert.Equal(t, 1, stored.UnreadCount["alice"])
}

func TestSendMessage_Errors(t *testing.T) {
	uc, repo := newChat()
	thread := entity.NewDirectThread(alice(), bob())
	repo.addThread(thread)

	_, err := uc.SendMessage(context.Background(), "", thread.ID, SendMessageInput{Text: "hi"})
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))

	_, err = uc.SendMessage(context.Background(), "alice", thread.ID, SendMessageInput{Text: "  "})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = uc.SendMessage(context.Background(), "alice", thread.ID, SendMessageInput{MediaURL: "https://x", MediaType: "audio"})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = uc.SendMessage(context.Background(), "mallory", thread.ID, SendMessageInput{Text: "hi"})
	assert.True(t, errors.Is(err, "FORBIDDEN"))
	assert.Empty(t, repo.messages[thread.ID])
}

func TestMarkThreadReadAndReact(t *testing.T) {
	uc, repo := newChat()
	thread := entity.NewDirectThread(alice(), bob())
	repo.addThread(thread)

	msg, err := uc.SendMessage(context.Background(), "alice", thread.ID, SendMessageInput{Text: "hi"})
	require.NoError(t, err)

	require.NoError(t, uc.MarkThreadRead(context.Background(), "bob", thread.ID))
	assert.Equal(t, 0, thread.UnreadCount["bob"])
	assert.Equal(t, []string{thread.ID + ":bob"}, repo.readCalls)

	require.NoError(t, uc.ReactToMessage(context.Background(), "bob", thread.ID, msg.ID, "❤️"))
	require.NoError(t, uc.ReactToMessage(context.Background(), "bob", thread.ID, msg.ID, "😂"))
	assert.Equal(t, map[string]string{"bob": "😂"}, msg.Reactions)

	require.NoError(t, uc.ReactToMessage(context.Background(), "bob", thread.ID, msg.ID, ""))
	assert.Empty(t, msg.Reactions)
}

func TestObserveMessages_RequiresParticipant(t *testing.T) {
	uc, repo := newChat()
	thread := entity.NewDirectThread(alice(), bob())
	repo.addThread(thread)

	_, err := uc.ObserveMessages(context.Background(), "mallory", thread.ID)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	events, err := uc.ObserveMessages(context.Background(), "alice", thread.ID)
	require.NoError(t, err)
	assert.NotNil(t, events)

	_, err = uc.ObserveThreads(context.Background(), "")
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))
}
