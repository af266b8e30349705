package usecase

import (
	"context"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/internal/infrastructure/ratelimit"
	"togetherly/internal/infrastructure/session"
	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
)

var pinPattern = regexp.MustCompile(`^[0-9]{4,8}$`)

type AppLockUseCase struct {
	lockRepo    repository.AppLockRepository
	issuer      *session.Issuer
	rateLimiter *ratelimit.RateLimiter
	now         func() time.Time
}

func NewAppLockUseCase(lockRepo repository.AppLockRepository, issuer *session.Issuer, rateLimiter *ratelimit.RateLimiter) *AppLockUseCase {
	return &AppLockUseCase{
		lockRepo:    lockRepo,
		issuer:      issuer,
		rateLimiter: rateLimiter,
		now:         time.Now,
	}
}

type AppLockStatus struct {
	Enabled          bool       `json:"enabled"`
	BiometricEnabled bool       `json:"biometric_enabled"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

type UnlockResult struct {
	Token   string           `json:"token"`
	Session *session.Session `json:"session"`
}

func (uc *AppLockUseCase) Status(ctx context.Context, userID string) (*AppLockStatus, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	lock, err := uc.lockRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return &AppLockStatus{}, nil
		}
		return nil, err
	}

	updatedAt := lock.UpdatedAt
	return &AppLockStatus{
		Enabled:          true,
		BiometricEnabled: lock.BiometricEnabled,
		UpdatedAt:        &updatedAt,
	}, nil
}

// SetPIN creates the lock, or replaces its PIN. Replacing an existing PIN
// requires an unlocked session in ctx.
func (uc *AppLockUseCase) SetPIN(ctx context.Context, userID, pin string, biometricEnabled bool) error {
	if userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}
	if !pinPattern.MatchString(pin) {
		return errors.BadRequest("PIN must be 4 to 8 digits", nil)
	}

	_, err := uc.lockRepo.Get(ctx, userID)
	switch {
	case err == nil:
		if err := uc.requireSession(ctx, userID); err != nil {
			return err
		}
	case errors.Is(err, "NOT_FOUND"):
	default:
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal("Failed to secure PIN", err)
	}

	lock := &entity.AppLock{
		UserID:           userID,
		PinHash:          string(hash),
		BiometricEnabled: biometricEnabled,
		UpdatedAt:        uc.now(),
	}
	if err := uc.lockRepo.Save(ctx, lock); err != nil {
		return err
	}

	logger.Info("App lock PIN updated for user %s", userID)
	return nil
}

// Unlock checks the PIN and mints a session token for the private area.
func (uc *AppLockUseCase) Unlock(ctx context.Context, userID, pin string) (*UnlockResult, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if allowed, _ := uc.rateLimiter.Allow(userID, ratelimit.ActionUnlock); !allowed {
		return nil, errors.TooManyRequests("Too many unlock attempts, please wait")
	}

	lock, err := uc.lockRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, errors.BadRequest("App lock is not set up", err)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(lock.PinHash), []byte(pin)); err != nil {
		logger.Warn("Failed unlock attempt for user %s", userID)
		return nil, errors.Unauthorized("Invalid PIN", nil)
	}

	token, s, err := uc.issuer.Issue(userID)
	if err != nil {
		return nil, errors.Internal("Failed to create session", err)
	}
	return &UnlockResult{Token: token, Session: s}, nil
}

// RemovePIN turns the lock off. It requires an unlocked session in ctx.
func (uc *AppLockUseCase) RemovePIN(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}
	if err := uc.requireSession(ctx, userID); err != nil {
		return err
	}
	return uc.lockRepo.Delete(ctx, userID)
}

// VerifySession turns an unlock token back into the session it carries.
func (uc *AppLockUseCase) VerifySession(token, userID string) (*session.Session, error) {
	s, err := uc.issuer.Verify(token, userID)
	if err != nil {
		return nil, errors.Forbidden("App lock session is invalid or expired", err)
	}
	return s, nil
}

func (uc *AppLockUseCase) requireSession(ctx context.Context, userID string) error {
	s, ok := session.FromContext(ctx)
	if !ok || s.UserID != userID || !s.Active(uc.now()) {
		return errors.Forbidden("Unlock the app first", nil)
	}
	return nil
}
