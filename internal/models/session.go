package models

import "time"

// SessionView is the read model returned to the UI layer.
type SessionView struct {
	ID         string             `json:"id"`
	Items      []*QueueItem       `json:"items"`
	SelectedID string             `json:"selected_id,omitempty"`
	Settings   ProcessingSettings `json:"settings"`
	Processing bool               `json:"processing"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// CompletedCount counts items ready for aggregation.
func (v *SessionView) CompletedCount() int {
	n := 0
	for _, item := range v.Items {
		if item.Status == StatusCompleted {
			n++
		}
	}
	return n
}
