package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"togetherly/internal/infrastructure/ratelimit"
	"togetherly/internal/infrastructure/session"
	"togetherly/pkg/errors"
)

func newAppLock() (*AppLockUseCase, *fakeAppLockRepo) {
	repo := newFakeAppLockRepo()
	return NewAppLockUseCase(repo, session.NewIssuer("test-secret", 15*time.Minute), ratelimit.NewRateLimiter()), repo
}

func TestAppLock_SetAndUnlock(t *testing.T) {
	uc, repo := newAppLock()
	ctx := context.Background()

	require.NoError(t, uc.SetPIN(ctx, "alice", "1234", true))
	assert.NotEqual(t, "1234", repo.locks["alice"].PinHash)

	status, err := uc.Status(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	assert.True(t, status.BiometricEnabled)

	result, err := uc.Unlock(ctx, "alice", "1234")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "alice", result.Session.UserID)

	s, err := uc.VerifySession(result.Token, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", s.UserID)

	_, err = uc.VerifySession(result.Token, "bob")
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestAppLock_WrongPIN(t *testing.T) {
	uc, _ := newAppLock()
	ctx := context.Background()

	require.NoError(t, uc.SetPIN(ctx, "alice", "1234", false))

	_, err := uc.Unlock(ctx, "alice", "9999")
	assert.True(t, errors.Is(err, "UNAUTHORIZED"))
}

func TestAppLock_InvalidPINFormat(t *testing.T) {
	uc, _ := newAppLock()

	for _, pin := range []string{"", "123", "123456789", "12a4"} {
		err := uc.SetPIN(context.Background(), "alice", pin, false)
		assert.True(t, errors.Is(err, "BAD_REQUEST"), pin)
	}
}

func TestAppLock_ChangingOrRemovingRequiresSession(t *testing.T) {
	uc, repo := newAppLock()
	ctx := context.Background()

	require.NoError(t, uc.SetPIN(ctx, "alice", "1234", false))

	err := uc.SetPIN(ctx, "alice", "5678", false)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	err = uc.RemovePIN(ctx, "alice")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	result, err := uc.Unlock(ctx, "alice", "1234")
	require.NoError(t, err)
	unlocked := session.WithSession(ctx, result.Session)

	require.NoError(t, uc.SetPIN(unlocked, "alice", "5678", false))
	require.NoError(t, uc.RemovePIN(unlocked, "alice"))
	assert.Empty(t, repo.locks)
}

func TestAppLock_UnlockIsRateLimited(t *testing.T) {
	uc, _ := newAppLock()
	ctx := context.Background()
	require.NoError(t, uc.SetPIN(ctx, "alice", "1234", false))

	var lastErr error
	for i := 0; i < 6; i++ {
		_, lastErr = uc.Unlock(ctx, "alice", "0000")
	}
	assert.True(t, errors.Is(lastErr, "TOO_MANY_REQUESTS"))
}
