package entity

import (
	"sort"
	"strings"
	"time"
)

// ChatThread is a 1:1 conversation summary. PairKey is the sorted,
// underscore-joined pair of participant IDs and identifies the thread for
// that pair.
type ChatThread struct {
	ID                string            `json:"id" firestore:"id"`
	Participants      []string          `json:"participants" firestore:"participants"`
	ParticipantNames  map[string]string `json:"participant_names" firestore:"participantNames"`
	ParticipantEmails map[string]string `json:"participant_emails" firestore:"participantEmails"`
	PairKey           string            `json:"pair_key" firestore:"pairKey"`
	LastMessage       string            `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt     time.Time         `json:"last_message_at" firestore:"lastMessageAt"`
	UnreadCount       map[string]int    `json:"unread_count" firestore:"unreadCount"` // Map of userID to unread count
	CreatedAt         time.Time         `json:"created_at" firestore:"createdAt"`
	UpdatedAt         time.Time         `json:"updated_at" firestore:"updatedAt"`
}

func PairKey(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// NewDirectThread builds an unsaved thread between two users with both
// unread counters at zero.
func NewDirectThread(a, b *User) *ChatThread {
	pairKey := PairKey(a.ID, b.ID)
	return &ChatThread{
		ID:           pairKey,
		Participants: []string{a.ID, b.ID},
		ParticipantNames: map[string]string{
			a.ID: a.DisplayName,
			b.ID: b.DisplayName,
		},
		ParticipantEmails: map[string]string{
			a.ID: a.Email,
			b.ID: b.Email,
		},
		PairKey: pairKey,
		UnreadCount: map[string]int{
			a.ID: 0,
			b.ID: 0,
		},
	}
}

func (t *ChatThread) HasParticipant(userID string) bool {
	for _, p := range t.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// ApplySend updates the denormalized summary for a message sent by senderID:
// the sender's counter resets and every other participant gains one.
func (t *ChatThread) ApplySend(senderID, preview string, at time.Time) {
	t.LastMessage = preview
	t.LastMessageAt = at
	t.UpdatedAt = at
	if t.UnreadCount == nil {
		t.UnreadCount = make(map[string]int)
	}
	for _, participantID := range t.Participants {
		if participantID == senderID {
			t.UnreadCount[participantID] = 0
			continue
		}
		t.UnreadCount[participantID]++
	}
}
