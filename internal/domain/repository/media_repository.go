package repository

import (
	"context"

	"togetherly/internal/domain/entity"
)

type MediaRepository interface {
	Create(ctx context.Context, media *entity.MediaFile) error
	GetByURL(ctx context.Context, url string) (*entity.MediaFile, error)
	ListByUploader(ctx context.Context, userID string, limit, offset int) ([]*entity.MediaFile, error)
	Delete(ctx context.Context, id string) error
}
