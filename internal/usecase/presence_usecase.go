package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/internal/infrastructure/ratelimit"
	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
)

// typingRefreshInterval is how often an open typing subscription re-applies
// the freshness window, so stale entries disappear without a new snapshot.
const typingRefreshInterval = time.Second

type PresenceUseCase struct {
	presenceRepo repository.PresenceRepository
	chatRepo     repository.ChatRepository
	rateLimiter  *ratelimit.RateLimiter
	threshold    time.Duration
	now          func() time.Time
}

func NewPresenceUseCase(
	presenceRepo repository.PresenceRepository,
	chatRepo repository.ChatRepository,
	rateLimiter *ratelimit.RateLimiter,
	threshold time.Duration,
) *PresenceUseCase {
	return &PresenceUseCase{
		presenceRepo: presenceRepo,
		chatRepo:     chatRepo,
		rateLimiter:  rateLimiter,
		threshold:    threshold,
		now:          time.Now,
	}
}

type PresenceStatus struct {
	UserID     string     `json:"user_id"`
	LastActive *time.Time `json:"last_active"`
	Online     bool       `json:"online"`
}

// MarkActive records that the caller is active now.
func (uc *PresenceUseCase) MarkActive(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}
	return uc.presenceRepo.MarkActive(ctx, userID)
}

// GetPresence reports the user's last activity and whether that is within
// threshold of now. A zero threshold uses the configured default.
func (uc *PresenceUseCase) GetPresence(ctx context.Context, userID string, threshold time.Duration) (*PresenceStatus, error) {
	if threshold <= 0 {
		threshold = uc.threshold
	}

	status := &PresenceStatus{UserID: userID}
	presence, err := uc.presenceRepo.GetPresence(ctx, userID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return status, nil
		}
		return nil, err
	}

	if !presence.LastActive.IsZero() {
		lastActive := presence.LastActive
		status.LastActive = &lastActive
	}
	status.Online = presence.IsOnline(uc.now(), threshold)
	return status, nil
}

// ObservePresence streams the raw presence record; callers decide online
// state against their own threshold.
func (uc *PresenceUseCase) ObservePresence(ctx context.Context, viewerID, userID string) (<-chan repository.PresenceEvent, error) {
	if viewerID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if userID == "" {
		return nil, errors.BadRequest("User ID is required", nil)
	}
	return uc.presenceRepo.ObservePresence(ctx, userID), nil
}

// SetTyping raises or clears the caller's typing flag in a thread. Clearing
// deletes the entry.
func (uc *PresenceUseCase) SetTyping(ctx context.Context, userID, threadID string, typing bool) error {
	if userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}
	if typing {
		if allowed, _ := uc.rateLimiter.Allow(userID, ratelimit.ActionTyping); !allowed {
			return errors.TooManyRequests("Too many typing updates")
		}
	}
	if err := uc.checkParticipant(ctx, userID, threadID); err != nil {
		return err
	}

	if !typing {
		return uc.presenceRepo.ClearTyping(ctx, threadID, userID)
	}
	return uc.presenceRepo.SetTyping(ctx, threadID, userID)
}

// ListTyping returns the other participants currently typing in a thread.
func (uc *PresenceUseCase) ListTyping(ctx context.Context, userID, threadID string) ([]*entity.TypingState, error) {
	if err := uc.checkParticipant(ctx, userID, threadID); err != nil {
		return nil, err
	}

	states, err := uc.presenceRepo.ListTyping(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return entity.ActiveTypers(states, userID, uc.now()), nil
}

// ObserveTyping streams the set of other participants typing in a thread.
// The freshness filter is re-applied every second, and an event is only
// sent when the visible set changes.
func (uc *PresenceUseCase) ObserveTyping(ctx context.Context, userID, threadID string) (<-chan repository.TypingEvent, error) {
	if err := uc.checkParticipant(ctx, userID, threadID); err != nil {
		return nil, err
	}

	upstream := uc.presenceRepo.ObserveTyping(ctx, threadID)
	out := make(chan repository.TypingEvent, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(typingRefreshInterval)
		defer ticker.Stop()

		var latest []*entity.TypingState
		lastKey := "-"

		publish := func() bool {
			active := entity.ActiveTypers(latest, userID, uc.now())
			key := typersKey(active)
			if key == lastKey {
				return true
			}
			lastKey = key
			select {
			case out <- repository.TypingEvent{Items: active}:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case ev, ok := <-upstream:
				if !ok {
					return
				}
				if ev.Err != nil {
					logger.Warn("Typing subscription for thread %s failed: %v", threadID, ev.Err)
					select {
					case out <- ev:
					case <-ctx.Done():
					}
					return
				}
				latest = ev.Items
				if !publish() {
					return
				}
			case <-ticker.C:
				if latest == nil {
					continue
				}
				if !publish() {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func typersKey(states []*entity.TypingState) string {
	ids := make([]string, 0, len(states))
	for _, s := range states {
		ids = append(ids, s.UserID)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func (uc *PresenceUseCase) checkParticipant(ctx context.Context, userID, threadID string) error {
	if userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}
	if threadID == "" {
		return errors.BadRequest("Thread ID is required", nil)
	}

	thread, err := uc.chatRepo.GetThread(ctx, threadID)
	if err != nil {
		return err
	}
	if !thread.HasParticipant(userID) {
		return errors.Forbidden("User is not a participant in this thread", nil)
	}
	return nil
}
