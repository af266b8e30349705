package usecase

import (
	"context"
	"strings"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/pkg/errors"
)

type UserUseCase struct {
	userRepo     repository.UserRepository
	firebaseAuth FirebaseAuthClient
}

func NewUserUseCase(userRepo repository.UserRepository, firebaseAuth FirebaseAuthClient) *UserUseCase {
	return &UserUseCase{
		userRepo:     userRepo,
		firebaseAuth: firebaseAuth,
	}
}

type SyncProfileInput struct {
	DisplayName string
}

// SyncProfile copies the caller's Firebase Auth record into users/{uid} so
// other users can find them by email.
func (uc *UserUseCase) SyncProfile(ctx context.Context, userID string, input SyncProfileInput) (*entity.User, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	authUser, err := uc.firebaseAuth.GetUser(ctx, userID)
	if err != nil {
		return nil, errors.Internal("Failed to load account", err)
	}
	if authUser.Email == "" {
		return nil, errors.BadRequest("Account has no email address", nil)
	}

	user := &entity.User{
		ID:       userID,
		Email:    strings.ToLower(authUser.Email),
		PhotoURL: authUser.PhotoURL,
	}

	existing, err := uc.userRepo.GetByID(ctx, userID)
	switch {
	case err == nil:
		user.CreatedAt = existing.CreatedAt
		user.DisplayName = existing.DisplayName
	case errors.Is(err, "NOT_FOUND"):
	default:
		return nil, err
	}

	switch {
	case strings.TrimSpace(input.DisplayName) != "":
		user.DisplayName = strings.TrimSpace(input.DisplayName)
	case user.DisplayName == "" && authUser.DisplayName != "":
		user.DisplayName = authUser.DisplayName
	case user.DisplayName == "":
		user.DisplayName = strings.SplitN(user.Email, "@", 2)[0]
	}

	if err := uc.userRepo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	return uc.userRepo.GetByID(ctx, userID)
}
