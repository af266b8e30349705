package entity

import "time"

// TypingFreshnessWindow bounds how old a typing signal may be and still count.
const TypingFreshnessWindow = 8 * time.Second

type UserPresence struct {
	UserID     string    `json:"user_id" firestore:"-"`
	LastActive time.Time `json:"last_active" firestore:"lastActive"`
}

// IsOnline reports whether the user was active within threshold of now.
func (p *UserPresence) IsOnline(now time.Time, threshold time.Duration) bool {
	if p == nil || p.LastActive.IsZero() {
		return false
	}
	return now.Sub(p.LastActive) <= threshold
}

type TypingState struct {
	UserID    string    `json:"user_id" firestore:"-"`
	ThreadID  string    `json:"thread_id" firestore:"-"`
	Typing    bool      `json:"typing" firestore:"typing"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// ActiveTypers keeps entries that are typing, fresh at now, and not the
// viewer's own.
func ActiveTypers(states []*TypingState, viewerID string, now time.Time) []*TypingState {
	active := make([]*TypingState, 0, len(states))
	for _, s := range states {
		if s == nil || !s.Typing || s.UserID == viewerID {
			continue
		}
		if now.Sub(s.UpdatedAt) > TypingFreshnessWindow {
			continue
		}
		active = append(active, s)
	}
	return active
}
