package entity

import "time"

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// ChatMessage is immutable after creation except for ReadBy and Reactions,
// which only accrue.
type ChatMessage struct {
	ID         string            `json:"id" firestore:"id"`
	ThreadID   string            `json:"thread_id" firestore:"threadId"`
	SenderID   string            `json:"sender_id" firestore:"senderId"`
	SenderName string            `json:"sender_name" firestore:"senderName"`
	Text       string            `json:"text" firestore:"text"`
	MediaURL   string            `json:"media_url,omitempty" firestore:"mediaUrl,omitempty"`
	MediaType  string            `json:"media_type,omitempty" firestore:"mediaType,omitempty"` // "image", "video"
	CreatedAt  time.Time         `json:"created_at" firestore:"createdAt,serverTimestamp"`
	ReadBy     []string          `json:"read_by" firestore:"readBy"`
	Reactions  map[string]string `json:"reactions,omitempty" firestore:"reactions,omitempty"` // userID -> emoji
}

// Preview is the text shown in the thread summary.
func (m *ChatMessage) Preview() string {
	if m.Text != "" {
		return m.Text
	}
	switch m.MediaType {
	case MediaTypeImage:
		return "[image]"
	case MediaTypeVideo:
		return "[video]"
	}
	return ""
}

func (m *ChatMessage) IsReadBy(userID string) bool {
	for _, reader := range m.ReadBy {
		if reader == userID {
			return true
		}
	}
	return false
}
