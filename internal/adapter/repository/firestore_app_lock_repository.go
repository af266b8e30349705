package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/pkg/errors"
)

const appLocksCollection = "app_locks"

type firestoreAppLockRepository struct {
	client *firestore.Client
}

func NewFirestoreAppLockRepository(client *firestore.Client) repository.AppLockRepository {
	return &firestoreAppLockRepository{
		client: client,
	}
}

func (r *firestoreAppLockRepository) Get(ctx context.Context, userID string) (*entity.AppLock, error) {
	doc, err := r.client.Collection(appLocksCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("App lock", err)
		}
		return nil, errors.Internal("Failed to get app lock", err)
	}

	var lock entity.AppLock
	if err := doc.DataTo(&lock); err != nil {
		return nil, errors.Internal("Failed to parse app lock", err)
	}
	lock.UserID = doc.Ref.ID
	return &lock, nil
}

func (r *firestoreAppLockRepository) Save(ctx context.Context, lock *entity.AppLock) error {
	lock.UpdatedAt = time.Now()
	if _, err := r.client.Collection(appLocksCollection).Doc(lock.UserID).Set(ctx, lock); err != nil {
		return errors.Internal("Failed to save app lock", err)
	}
	return nil
}

func (r *firestoreAppLockRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.client.Collection(appLocksCollection).Doc(userID).Delete(ctx); err != nil {
		return errors.Internal("Failed to delete app lock", err)
	}
	return nil
}
