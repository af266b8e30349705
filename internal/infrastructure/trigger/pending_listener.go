// Package trigger feeds newly created pending content to the moderation gate.
package trigger

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/internal/usecase"
	"togetherly/pkg/logger"
)

const defaultWorkers = 4

// Gate is the part of the moderation use case the listener drives.
type Gate interface {
	Process(ctx context.Context, pending *entity.PendingContent) (*usecase.ModerationOutcome, error)
}

// PendingListener delivers each record that enters the pending set to the
// gate. Delivery is at least once: a restart replays the backlog and the gate
// skips records that are already decided.
type PendingListener struct {
	repo    repository.PendingContentRepository
	gate    Gate
	workers int
}

func NewPendingListener(repo repository.PendingContentRepository, gate Gate, workers int) *PendingListener {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &PendingListener{
		repo:    repo,
		gate:    gate,
		workers: workers,
	}
}

// Run blocks until ctx is cancelled or the listener fails. Gate errors on
// individual records are logged and do not stop the listener.
func (l *PendingListener) Run(ctx context.Context) error {
	logger.Info("Pending content listener started with %d workers", l.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	events := l.repo.ObservePendingCreated(gctx)

	var listenErr error
	for ev := range events {
		if ev.Err != nil {
			listenErr = fmt.Errorf("pending content listener: %w", ev.Err)
			break
		}

		for _, pending := range ev.Items {
			pending := pending
			g.Go(func() error {
				l.handle(gctx, pending)
				return nil
			})
		}
	}

	_ = g.Wait()
	if listenErr != nil {
		return listenErr
	}

	logger.Info("Pending content listener stopped")
	return ctx.Err()
}

func (l *PendingListener) handle(ctx context.Context, pending *entity.PendingContent) {
	outcome, err := l.gate.Process(ctx, pending)
	if err != nil {
		logger.Error("Moderation failed for pending content %s: %v", pending.ID, err)
		return
	}
	if outcome.Skipped {
		logger.Debug("Pending content %s already decided (%s)", pending.ID, outcome.Status)
	}
}
