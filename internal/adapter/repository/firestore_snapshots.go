package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"togetherly/internal/domain/repository"
	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
)

// observeQuery streams the full result set of q on every change. Documents
// that fail to decode are skipped. A listener failure is delivered as an
// error event and closes the channel.
func observeQuery[T any](ctx context.Context, q firestore.Query, name string, decode func(*firestore.DocumentSnapshot) (T, error)) <-chan repository.Event[T] {
	out := make(chan repository.Event[T], 1)

	go func() {
		defer close(out)

		it := q.Snapshots(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				logger.Error("%s listener failed: %v", name, err)
				emit(ctx, out, repository.Event[T]{Err: errors.Unavailable("Subscription failed", err)})
				return
			}

			docs, err := snap.Documents.GetAll()
			if err != nil {
				logger.Error("%s listener could not read snapshot: %v", name, err)
				emit(ctx, out, repository.Event[T]{Err: errors.Unavailable("Subscription failed", err)})
				return
			}

			items := make([]T, 0, len(docs))
			for _, doc := range docs {
				item, err := decode(doc)
				if err != nil {
					logger.Warn("%s listener skipping document %s: %v", name, doc.Ref.ID, err)
					continue
				}
				items = append(items, item)
			}

			if !emit(ctx, out, repository.Event[T]{Items: items}) {
				return
			}
		}
	}()

	return out
}

func emit[T any](ctx context.Context, out chan<- repository.Event[T], ev repository.Event[T]) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
