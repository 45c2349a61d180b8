package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phambaophuc/masscrop/internal/geometry"
)

const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

const (
	DefaultFormat  = FormatJPEG
	DefaultQuality = 0.9
)

var ErrInvalidSettings = errors.New("invalid processing settings")

// ProcessingSettings is shared by every item of a session at batch time.
type ProcessingSettings struct {
	AspectRatio *float64 `json:"aspect_ratio"`
	Format      string   `json:"format"`
	Quality     float64  `json:"quality"`
}

func DefaultSettings() ProcessingSettings {
	return ProcessingSettings{
		Format:  DefaultFormat,
		Quality: DefaultQuality,
	}
}

// SettingsRequest is a partial update from the settings panel. AspectRatio
// accepts a preset label, "W:H", a decimal, or "free".
type SettingsRequest struct {
	AspectRatio *string  `json:"aspect_ratio"`
	Format      *string  `json:"format" binding:"omitempty,oneof=jpeg jpg png webp"`
	Quality     *float64 `json:"quality" binding:"omitempty,min=0,max=1"`
}

// NormalizeFormat maps aliases onto the supported output formats.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("%w: unsupported output format %q", ErrInvalidSettings, format)
	}
}

// ContentType returns the MIME type produced for format.
func ContentType(format string) string {
	return "image/" + format
}

func (s ProcessingSettings) Validate() error {
	if _, err := NormalizeFormat(s.Format); err != nil {
		return err
	}
	if !(s.Quality >= 0 && s.Quality <= 1) {
		return fmt.Errorf("%w: quality %v outside [0, 1]", ErrInvalidSettings, s.Quality)
	}
	return geometry.ValidateAspectRatio(s.AspectRatio)
}

// Clone returns a copy that does not share the aspect ratio pointer.
func (s ProcessingSettings) Clone() ProcessingSettings {
	if s.AspectRatio != nil {
		s.AspectRatio = geometry.Ratio(*s.AspectRatio)
	}
	return s
}

// NewSettings builds validated settings from raw configuration values.
func NewSettings(format string, quality float64, aspectRatio string) (ProcessingSettings, error) {
	normalized, err := NormalizeFormat(format)
	if err != nil {
		return ProcessingSettings{}, err
	}

	ratio, err := geometry.ParseAspectRatio(aspectRatio)
	if err != nil {
		return ProcessingSettings{}, err
	}

	s := ProcessingSettings{AspectRatio: ratio, Format: normalized, Quality: quality}
	if err := s.Validate(); err != nil {
		return ProcessingSettings{}, err
	}
	return s, nil
}
