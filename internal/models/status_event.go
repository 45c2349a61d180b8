package models

import "time"

// StatusEvent is emitted on every item status transition.
type StatusEvent struct {
	SessionID string    `json:"session_id"`
	ItemID    string    `json:"item_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
