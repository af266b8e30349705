package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
)

const mediaCollection = "chat_media"

type firestoreMediaRepository struct {
	client *firestore.Client
}

func NewFirestoreMediaRepository(client *firestore.Client) repository.MediaRepository {
	return &firestoreMediaRepository{
		client: client,
	}
}

func (r *firestoreMediaRepository) Create(ctx context.Context, media *entity.MediaFile) error {
	_, err := r.client.Collection(mediaCollection).Doc(media.ID).Set(ctx, media)
	if err != nil {
		return errors.Internal("Failed to record media", err)
	}
	return nil
}

func (r *firestoreMediaRepository) GetByURL(ctx context.Context, url string) (*entity.MediaFile, error) {
	iter := r.client.Collection(mediaCollection).Where("url", "==", url).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Media", nil)
		}
		return nil, errors.Internal("Failed to query media", err)
	}

	var media entity.MediaFile
	if err := doc.DataTo(&media); err != nil {
		return nil, errors.Internal("Failed to parse media", err)
	}
	return &media, nil
}

func (r *firestoreMediaRepository) ListByUploader(ctx context.Context, userID string, limit, offset int) ([]*entity.MediaFile, error) {
	query := r.client.Collection(mediaCollection).
		Where("uploadedBy", "==", userID).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var files []*entity.MediaFile
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate media", err)
		}

		var media entity.MediaFile
		if err := doc.DataTo(&media); err != nil {
			logger.Error("Failed to parse media %s: %v", doc.Ref.ID, err)
			continue
		}
		files = append(files, &media)
	}
	return files, nil
}

func (r *firestoreMediaRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection(mediaCollection).Doc(id).Delete(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Media", err)
		}
		return errors.Internal("Failed to delete media record", err)
	}
	return nil
}
