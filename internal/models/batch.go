package models

import "time"

// BatchSummary reports the outcome of one batch run.
type BatchSummary struct {
	SessionID  string        `json:"session_id"`
	Processed  int           `json:"processed"`
	Completed  int           `json:"completed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
}
