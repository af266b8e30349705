package usecase

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/internal/domain/service"
	"togetherly/internal/infrastructure/metrics"
	"togetherly/internal/infrastructure/ratelimit"
	"togetherly/pkg/config"
	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
)

const (
	RejectReasonMissingFields = "Missing required fields"
	RejectReasonToxic         = "Rejected by Perspective API"
)

// Reasons recorded on approvals, for metrics and logs only.
const (
	approveReasonClean          = "clean"
	approveReasonNotConfigured  = "scorer_not_configured"
	approveReasonScorerFailed   = "scorer_failed"
	approveReasonUnsupported    = "unsupported_kind"
	approveReasonMissingContext = "missing_context"
)

// Notifier pushes realtime events to a user's open connections.
type Notifier interface {
	NotifyUser(userID, messageType string, data interface{})
}

const notificationModerationResult = "moderation_result"

type ModerationUseCase struct {
	pendingRepo repository.PendingContentRepository
	chatRepo    repository.ChatRepository
	scorer      service.ToxicityScorer
	thresholds  config.ModerationThresholds
	notifier    Notifier
	rateLimiter *ratelimit.RateLimiter
}

func NewModerationUseCase(
	pendingRepo repository.PendingContentRepository,
	chatRepo repository.ChatRepository,
	scorer service.ToxicityScorer,
	thresholds config.ModerationThresholds,
	rateLimiter *ratelimit.RateLimiter,
) *ModerationUseCase {
	return &ModerationUseCase{
		pendingRepo: pendingRepo,
		chatRepo:    chatRepo,
		scorer:      scorer,
		thresholds:  thresholds,
		rateLimiter: rateLimiter,
	}
}

// SetNotifier enables moderation_result pushes. Without it outcomes are only
// visible through the pending record.
func (uc *ModerationUseCase) SetNotifier(notifier Notifier) {
	uc.notifier = notifier
}

// ModerationOutcome describes what the gate did with one pending record.
// Skipped is set when the record was already terminal and nothing was
// written.
type ModerationOutcome struct {
	PendingID string                   `json:"pending_id"`
	ContextID string                   `json:"context_id,omitempty"`
	Status    string                   `json:"status"`
	Reason    string                   `json:"reason,omitempty"`
	Scores    *entity.ModerationScores `json:"scores,omitempty"`
	MessageID string                   `json:"message_id,omitempty"`
	Skipped   bool                     `json:"skipped"`
}

type SubmitPendingInput struct {
	Text      string
	MediaURL  string
	MediaType string
}

// SubmitPending stages content for moderation in a thread the caller belongs
// to. The gate picks it up from the pending_content listener.
func (uc *ModerationUseCase) SubmitPending(ctx context.Context, userID, threadID string, input SubmitPendingInput) (*entity.PendingContent, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if allowed, _ := uc.rateLimiter.Allow(userID, ratelimit.ActionSubmitPending); !allowed {
		return nil, errors.TooManyRequests("Too many submissions, please slow down")
	}

	thread, err := uc.chatRepo.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !thread.HasParticipant(userID) {
		return nil, errors.Forbidden("User is not a participant in this thread", nil)
	}

	pending := &entity.PendingContent{
		ID:         uuid.New().String(),
		Kind:       entity.ContentKindChatMessage,
		UserID:     userID,
		SenderName: thread.ParticipantNames[userID],
		Text:       input.Text,
		MediaURL:   input.MediaURL,
		MediaType:  input.MediaType,
		ContextID:  threadID,
		Status:     entity.PendingStatusPending,
	}
	if err := uc.pendingRepo.Create(ctx, pending); err != nil {
		return nil, err
	}

	logger.Info("Pending content %s staged by %s for thread %s", pending.ID, userID, threadID)
	return pending, nil
}

// GetPending returns a pending record to its author.
func (uc *ModerationUseCase) GetPending(ctx context.Context, userID, pendingID string) (*entity.PendingContent, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	pending, err := uc.pendingRepo.GetByID(ctx, pendingID)
	if err != nil {
		return nil, err
	}
	if pending.UserID != userID {
		return nil, errors.Forbidden("You do not have access to this content", nil)
	}
	return pending, nil
}

// ProcessByID loads a record and runs it through the gate.
func (uc *ModerationUseCase) ProcessByID(ctx context.Context, pendingID string) (*ModerationOutcome, error) {
	pending, err := uc.pendingRepo.GetByID(ctx, pendingID)
	if err != nil {
		return nil, err
	}
	return uc.Process(ctx, pending)
}

// Process decides one pending record. It is safe to call more than once for
// the same record: once the record is terminal, later calls write nothing and
// report Skipped.
func (uc *ModerationUseCase) Process(ctx context.Context, pending *entity.PendingContent) (*ModerationOutcome, error) {
	ctx, span := otel.Tracer("togetherly/moderation").Start(ctx, "moderation.process")
	defer span.End()
	span.SetAttributes(
		attribute.String("pending.id", pending.ID),
		attribute.String("pending.kind", pending.Kind),
	)

	outcome := &ModerationOutcome{PendingID: pending.ID, ContextID: pending.ContextID}

	if pending.IsTerminal() {
		outcome.Status = pending.Status
		outcome.Skipped = true
		logger.Debug("Pending content %s already %s, skipping", pending.ID, pending.Status)
		return outcome, nil
	}

	if pending.Text == "" || pending.UserID == "" {
		return uc.reject(ctx, pending, outcome, RejectReasonMissingFields, nil)
	}

	scores, approveReason := uc.score(ctx, pending)
	if service.ShouldReject(scores, uc.thresholds) {
		span.SetAttributes(attribute.StringSlice("moderation.exceeded", service.ExceededAttributes(scores, uc.thresholds)))
		return uc.reject(ctx, pending, outcome, RejectReasonToxic, scores)
	}

	var message *entity.ChatMessage
	switch {
	case pending.Kind != entity.ContentKindChatMessage:
		logger.Warn("Pending content %s has unsupported kind %q, approving without output", pending.ID, pending.Kind)
		approveReason = approveReasonUnsupported
	case pending.ContextID == "":
		logger.Warn("Pending content %s has no context, approving without output", pending.ID)
		approveReason = approveReasonMissingContext
	default:
		message = routedMessage(pending)
	}

	result, err := uc.pendingRepo.Approve(ctx, pending.ID, scores, message)
	if err != nil {
		span.SetStatus(codes.Error, "approve failed")
		return nil, err
	}

	outcome.Status = result.Status
	if !result.Applied {
		outcome.Skipped = true
		return outcome, nil
	}
	outcome.Scores = scores
	if message != nil {
		outcome.MessageID = message.ID
	}

	uc.record(pending, outcome, approveReason)
	return outcome, nil
}

// score asks the scorer for the text's attribute scores. Any failure fails
// open: the content is approved without scores.
func (uc *ModerationUseCase) score(ctx context.Context, pending *entity.PendingContent) (*entity.ModerationScores, string) {
	if uc.scorer == nil {
		metrics.ScorerRequests.WithLabelValues("not_configured").Inc()
		return nil, approveReasonNotConfigured
	}

	start := time.Now()
	scores, err := uc.scorer.Score(ctx, pending.Text)
	if stderrors.Is(err, service.ErrScorerNotConfigured) {
		metrics.ScorerRequests.WithLabelValues("not_configured").Inc()
		return nil, approveReasonNotConfigured
	}
	metrics.ScorerLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ScorerRequests.WithLabelValues("error").Inc()
		logger.Warn("Scoring failed for pending content %s, approving: %v", pending.ID, err)
		return nil, approveReasonScorerFailed
	}

	metrics.ScorerRequests.WithLabelValues("ok").Inc()
	return scores, approveReasonClean
}

func (uc *ModerationUseCase) reject(ctx context.Context, pending *entity.PendingContent, outcome *ModerationOutcome, reason string, scores *entity.ModerationScores) (*ModerationOutcome, error) {
	result, err := uc.pendingRepo.Reject(ctx, pending.ID, reason, scores)
	if err != nil {
		return nil, err
	}

	outcome.Status = result.Status
	if !result.Applied {
		outcome.Skipped = true
		return outcome, nil
	}
	outcome.Reason = reason
	outcome.Scores = scores

	uc.record(pending, outcome, reason)
	return outcome, nil
}

func (uc *ModerationUseCase) record(pending *entity.PendingContent, outcome *ModerationOutcome, reason string) {
	metrics.ModerationDecisions.WithLabelValues(outcome.Status, reason).Inc()
	logger.LogModerationDecision(pending.ID, outcome.Status, reason)

	if uc.notifier != nil && pending.UserID != "" {
		uc.notifier.NotifyUser(pending.UserID, notificationModerationResult, outcome)
	}
}

// routedMessage is the chat message an approved record turns into. It reuses
// the pending ID so a replayed approval cannot produce a second message.
func routedMessage(pending *entity.PendingContent) *entity.ChatMessage {
	return &entity.ChatMessage{
		ID:         pending.ID,
		ThreadID:   pending.ContextID,
		SenderID:   pending.UserID,
		SenderName: pending.SenderName,
		Text:       pending.Text,
		MediaURL:   pending.MediaURL,
		MediaType:  pending.MediaType,
		ReadBy:     []string{pending.UserID},
	}
}
