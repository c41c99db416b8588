package models

import "time"

// ReadStatus is the per-user read marker of an entry. A missing row means unread.
type ReadStatus struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	EntryID   int       `json:"entry_id"`
	Read      bool      `json:"read"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Exists reports whether the status has been persisted before
func (s *ReadStatus) Exists() bool {
	return s != nil && s.ID != 0
}
