package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/internal/infrastructure/ratelimit"
	"togetherly/pkg/errors"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newPresence(clock *testClock) (*PresenceUseCase, *fakePresenceRepo) {
	chatRepo := newFakeChatRepo()
	chatRepo.addThread(entity.NewDirectThread(alice(), bob()))

	presenceRepo := newFakePresenceRepo(clock.Now)
	uc := NewPresenceUseCase(presenceRepo, chatRepo, ratelimit.NewRateLimiter(), 2*time.Minute)
	uc.now = clock.Now
	return uc, presenceRepo
}

func TestGetPresence_OnlineIsPureFunctionOfThreshold(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	uc, _ := newPresence(clock)

	require.NoError(t, uc.MarkActive(context.Background(), "bob"))
	clock.now = clock.now.Add(90 * time.Second)

	status, err := uc.GetPresence(context.Background(), "bob", 0)
	require.NoError(t, err)
	assert.True(t, status.Online)
	require.NotNil(t, status.LastActive)

	status, err = uc.GetPresence(context.Background(), "bob", time.Minute)
	require.NoError(t, err)
	assert.False(t, status.Online)
}

func TestGetPresence_UnknownUserIsOffline(t *testing.T) {
	uc, _ := newPresence(&testClock{now: time.Now()})

	status, err := uc.GetPresence(context.Background(), "ghost", 0)
	require.NoError(t, err)
	assert.False(t, status.Online)
	assert.Nil(t, status.LastActive)
}

func TestListTyping_FiltersSelfAndStale(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	uc, _ := newPresence(clock)
	ctx := context.Background()

	require.NoError(t, uc.SetTyping(ctx, "alice", "alice_bob", true))
	require.NoError(t, uc.SetTyping(ctx, "bob", "alice_bob", true))

	typers, err := uc.ListTyping(ctx, "alice", "alice_bob")
	require.NoError(t, err)
	require.Len(t, typers, 1)
	assert.Equal(t, "bob", typers[0].UserID)

	clock.now = clock.now.Add(9 * time.Second)
	typers, err = uc.ListTyping(ctx, "alice", "alice_bob")
	require.NoError(t, err)
	assert.Empty(t, typers)
}

func TestSetTyping_StopDeletesEntry(t *testing.T) {
	clock := &testClock{now: time.Now()}
	uc, repo := newPresence(clock)
	ctx := context.Background()

	require.NoError(t, uc.SetTyping(ctx, "bob", "alice_bob", true))
	require.NoError(t, uc.SetTyping(ctx, "bob", "alice_bob", false))

	states, _ := repo.ListTyping(ctx, "alice_bob")
	assert.Empty(t, states)
}

func TestSetTyping_RequiresParticipant(t *testing.T) {
	uc, _ := newPresence(&testClock{now: time.Now()})

	err := uc.SetTyping(context.Background(), "mallory", "alice_bob", true)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	err = uc.SetTyping(context.Background(), "", "alice_bob", true)
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))
}

func TestObserveTyping_FiltersAndForwardsErrors(t *testing.T) {
	clock := &testClock{now: time.Now()}
	uc, repo := newPresence(clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := uc.ObserveTyping(ctx, "alice", "alice_bob")
	require.NoError(t, err)

	repo.typingEvents <- repository.TypingEvent{Items: []*entity.TypingState{
		{UserID: "alice", Typing: true, UpdatedAt: clock.now},
		{UserID: "bob", Typing: true, UpdatedAt: clock.now},
	}}

	select {
	case ev := <-events:
		require.NoError(t, ev.Err)
		require.Len(t, ev.Items, 1)
		assert.Equal(t, "bob", ev.Items[0].UserID)
	case <-time.After(time.Second):
		t.Fatal("expected typing event")
	}

	repo.typingEvents <- repository.TypingEvent{Err: errors.Unavailable("listener failed", nil)}

	select {
	case ev := <-events:
		assert.Error(t, ev.Err)
	case <-time.After(time.Second):
		t.Fatal("expected error event")
	}

	select {
	case _, ok := <-events:
		assert.False(t, ok, "stream should close after an error")
	case <-time.After(time.Second):
		t.Fatal("expected stream to close")
	}
}
