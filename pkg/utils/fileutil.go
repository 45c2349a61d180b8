package utils

import (
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	imageMIMEPrefix = "image/"
	exportPrefix    = "exports"
)

// DetectMIME returns declared when the client supplied a concrete type and
// falls back to sniffing the content otherwise.
func DetectMIME(declared string, data []byte) string {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if declared != "" && declared != "application/octet-stream" {
		if i := strings.Index(declared, ";"); i >= 0 {
			declared = strings.TrimSpace(declared[:i])
		}
		return declared
	}
	return mimetype.Detect(data).String()
}

// IsImageMIME accepts any image/* type.
func IsImageMIME(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), imageMIMEPrefix)
}

// OutputFilename prefixes the original name. The extension is kept as is.
func OutputFilename(prefix, originalName string) string {
	return prefix + filepath.Base(originalName)
}

// GenerateStorageKey places filename under a dated, unique prefix so
// repeated exports of the same artifact never replace each other and the
// object keeps its download name.
func GenerateStorageKey(filename string, at time.Time) string {
	return path.Join(
		exportPrefix,
		at.UTC().Format("2006/01/02"),
		uuid.New().String(),
		filepath.Base(filename),
	)
}
