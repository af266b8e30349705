package usecase

import (
	"context"

	"togetherly/internal/infrastructure/firebase"
)

type FirebaseAuthClient interface {
	VerifyToken(ctx context.Context, token string) (string, error)
	GetUser(ctx context.Context, uid string) (*firebase.AuthUser, error)
	TestConnection(ctx context.Context) error
}
