package entity

import "time"

const (
	PendingStatusPending  = "pending"
	PendingStatusApproved = "approved"
	PendingStatusRejected = "rejected"
)

const ContentKindChatMessage = "chat_message"

// ModerationScores holds per-attribute scores in [0,1]. A nil field means the
// scorer returned nothing usable for that attribute.
type ModerationScores struct {
	Toxicity       *float64 `json:"toxicity" firestore:"toxicity"`
	SevereToxicity *float64 `json:"severe_toxicity" firestore:"severeToxicity"`
	Insult         *float64 `json:"insult" firestore:"insult"`
	Threat         *float64 `json:"threat" firestore:"threat"`
	SexualExplicit *float64 `json:"sexual_explicit" firestore:"sexualExplicit"`
}

// PendingContent is user text staged for moderation. It leaves "pending"
// exactly once.
type PendingContent struct {
	ID           string            `json:"id" firestore:"id"`
	Kind         string            `json:"kind" firestore:"type"`
	UserID       string            `json:"user_id" firestore:"userId"`
	SenderName   string            `json:"sender_name,omitempty" firestore:"senderName,omitempty"`
	Text         string            `json:"text" firestore:"text"`
	MediaURL     string            `json:"media_url,omitempty" firestore:"mediaUrl,omitempty"`
	MediaType    string            `json:"media_type,omitempty" firestore:"mediaType,omitempty"`
	ContextID    string            `json:"context_id" firestore:"contextId"`
	Status       string            `json:"status" firestore:"status"`
	RejectReason string            `json:"reject_reason,omitempty" firestore:"rejectReason,omitempty"`
	Scores       *ModerationScores `json:"scores" firestore:"scores"`
	CreatedAt    time.Time         `json:"created_at" firestore:"createdAt"`
	ReviewedAt   *time.Time        `json:"reviewed_at,omitempty" firestore:"reviewedAt,omitempty"`
}

func (p *PendingContent) IsTerminal() bool {
	return p.Status == PendingStatusApproved || p.Status == PendingStatusRejected
}
