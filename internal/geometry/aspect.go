package geometry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidAspectRatio = errors.New("invalid aspect ratio")

// AspectPreset is a named ratio offered to the settings panel. A nil Ratio
// means the region is unconstrained.
type AspectPreset struct {
	Label string   `json:"label"`
	Ratio *float64 `json:"ratio"`
}

// Presets returns the fixed preset list in display order.
func Presets() []AspectPreset {
	return []AspectPreset{
		{Label: "free"},
		{Label: "1:1", Ratio: Ratio(1)},
		{Label: "4:3", Ratio: Ratio(4.0 / 3.0)},
		{Label: "16:9", Ratio: Ratio(16.0 / 9.0)},
		{Label: "3:4", Ratio: Ratio(3.0 / 4.0)},
		{Label: "9:16", Ratio: Ratio(9.0 / 16.0)},
	}
}

// Ratio returns a pointer to v.
func Ratio(v float64) *float64 {
	return &v
}

// ParseAspectRatio accepts "", "free", "W:H", "W/H" or a decimal. An empty or
// "free" value yields nil.
func ParseAspectRatio(value string) (*float64, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" || value == "free" {
		return nil, nil
	}

	var ratio float64
	if sep := strings.IndexAny(value, ":/"); sep >= 0 {
		w, err := strconv.ParseFloat(value[:sep], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, value)
		}
		h, err := strconv.ParseFloat(value[sep+1:], 64)
		if err != nil || h == 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, value)
		}
		ratio = w / h
	} else {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAspectRatio, value)
		}
		ratio = v
	}

	if err := ValidateAspectRatio(&ratio); err != nil {
		return nil, err
	}
	return &ratio, nil
}

// ValidateAspectRatio checks that a fixed ratio is a positive, finite number.
// Ratios too extreme for the minimum region size are clamped by DefaultRegion.
func ValidateAspectRatio(ratio *float64) error {
	if ratio == nil {
		return nil
	}
	if !(*ratio > 0) || math.IsInf(*ratio, 1) {
		return fmt.Errorf("%w: %g is not a positive ratio", ErrInvalidAspectRatio, *ratio)
	}
	return nil
}
