package repository

import (
	"context"

	"togetherly/internal/domain/entity"
)

type AppLockRepository interface {
	Get(ctx context.Context, userID string) (*entity.AppLock, error)
	Save(ctx context.Context, lock *entity.AppLock) error
	Delete(ctx context.Context, userID string) error
}
