// Package geometry models crop rectangles expressed as percentages of an
// image's natural dimensions, along with the clamping rules applied while a
// region is moved or resized.
package geometry

import "math"

const (
	// MinSize is the smallest width or height, in percent, a region may shrink to.
	MinSize = 5.0
	// MaxExtent is the full image edge in percent units.
	MaxExtent = 100.0

	defaultSize   = 50.0
	defaultOffset = 25.0
)

// CropRegion is a rectangle in percent (0-100) of the source image.
type CropRegion struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PixelRect is a CropRegion resolved against natural image dimensions.
type PixelRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle has no area.
func (r PixelRect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// ClampMove returns current translated to the proposed origin, kept fully
// inside the image. Width and height never change.
func ClampMove(current CropRegion, proposedX, proposedY float64) CropRegion {
	return CropRegion{
		X:      clamp(proposedX, 0, MaxExtent-current.Width),
		Y:      clamp(proposedY, 0, MaxExtent-current.Height),
		Width:  current.Width,
		Height: current.Height,
	}
}

// ClampResize resizes origin from its top-left corner. With a fixed aspect
// ratio the height follows the width; when that height would run past the
// bottom edge both sides are recomputed from the tallest height that fits so
// the ratio stays exact.
func ClampResize(origin CropRegion, proposedWidth, proposedHeight float64, aspectRatio *float64) CropRegion {
	width := clamp(proposedWidth, MinSize, MaxExtent-origin.X)
	height := clamp(proposedHeight, MinSize, MaxExtent-origin.Y)

	if aspectRatio != nil && *aspectRatio > 0 {
		ratio := *aspectRatio
		height = width / ratio
		if origin.Y+height > MaxExtent {
			height = MaxExtent - origin.Y
			width = height * ratio
		}
	}

	return CropRegion{
		X:      origin.X,
		Y:      origin.Y,
		Width:  width,
		Height: height,
	}
}

// DefaultRegion returns the centered region assigned to a freshly selected
// image. Ratios whose exact shape cannot fit between MinSize and MaxExtent
// are approximated with the nearest region that does.
func DefaultRegion(aspectRatio *float64) CropRegion {
	if aspectRatio == nil || *aspectRatio <= 0 {
		return CropRegion{X: defaultOffset, Y: defaultOffset, Width: defaultSize, Height: defaultSize}
	}

	ratio := *aspectRatio
	width := defaultSize
	height := width / ratio

	switch {
	case height > MaxExtent:
		height = MaxExtent
		width = height * ratio
	case height < MinSize:
		height = MinSize
		width = math.Min(height*ratio, MaxExtent)
	}
	if width < MinSize {
		width = MinSize
	}

	return CropRegion{
		X:      (MaxExtent - width) / 2,
		Y:      (MaxExtent - height) / 2,
		Width:  width,
		Height: height,
	}
}

// Valid reports whether r lies inside the image and meets the minimum size.
func (r CropRegion) Valid() bool {
	const eps = 1e-9
	return r.X >= -eps && r.Y >= -eps &&
		r.X+r.Width <= MaxExtent+eps &&
		r.Y+r.Height <= MaxExtent+eps &&
		r.Width >= MinSize-eps && r.Height >= MinSize-eps
}

// ToPixels converts r into absolute pixels for an image of the given natural
// size, rounding each component independently.
func (r CropRegion) ToPixels(naturalWidth, naturalHeight int) PixelRect {
	w, h := float64(naturalWidth), float64(naturalHeight)
	return PixelRect{
		X:      int(math.Round(r.X / MaxExtent * w)),
		Y:      int(math.Round(r.Y / MaxExtent * h)),
		Width:  int(math.Round(r.Width / MaxExtent * w)),
		Height: int(math.Round(r.Height / MaxExtent * h)),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
