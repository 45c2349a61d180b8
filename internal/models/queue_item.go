package models

import (
	"time"

	"github.com/phambaophuc/masscrop/internal/geometry"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

const (
	ProgressNone       = 0
	ProgressProcessing = 50
	ProgressDone       = 100
)

const MessageUnsupported = "Unsupported file format."

// QueueItem is one image in a session's batch.
type QueueItem struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	MIMEType      string               `json:"mime_type"`
	Size          int64                `json:"size"`
	Width         int                  `json:"width,omitempty"`
	Height        int                  `json:"height,omitempty"`
	SourceHandle  string               `json:"-"`
	PreviewHandle string               `json:"-"`
	OutputHandle  string               `json:"-"`
	Status        string               `json:"status"`
	ErrorDetail   string               `json:"error,omitempty"`
	Progress      int                  `json:"progress"`
	Crop          *geometry.CropRegion `json:"crop,omitempty"`
	OutputSize    int64                `json:"output_size,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	ProcessedAt   *time.Time           `json:"processed_at,omitempty"`
}

// Croppable reports whether the item was accepted at intake and therefore
// owns a crop region. Unsupported files never do.
func (i *QueueItem) Croppable() bool {
	return i.Crop != nil
}

// Runnable reports whether the batch picks the item up.
func (i *QueueItem) Runnable() bool {
	return i.Status == StatusPending || i.Status == StatusCompleted
}

// Clone deep-copies the item so callers can read it outside the store lock.
func (i *QueueItem) Clone() *QueueItem {
	c := *i
	if i.Crop != nil {
		crop := *i.Crop
		c.Crop = &crop
	}
	if i.ProcessedAt != nil {
		at := *i.ProcessedAt
		c.ProcessedAt = &at
	}
	return &c
}

// Upload is a file handed to session intake.
type Upload struct {
	Name     string
	MIMEType string
	Data     []byte
}
