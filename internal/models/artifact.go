package models

const (
	OutputPrefix    = "cropped_"
	ArchiveFilename = "mass_cropped_images.zip"
	ArchiveMIME     = "application/zip"
)

// Artifact is the aggregated download: either one cropped file or a zip of
// every completed item.
type Artifact struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
	Archive     bool   `json:"archive"`
	Entries     int    `json:"entries"`
}

type ExportResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Entries  int    `json:"entries"`
	FileSize int64  `json:"file_size"`
}
