package processor

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/masscrop/internal/geometry"
)

// cropImage copies rect out of img into a new surface of exactly the
// rectangle's size. Rectangles that resolve to no pixels are rejected.
func (p *ImageProcessor) cropImage(img image.Image, rect geometry.PixelRect) (image.Image, error) {
	if rect.Empty() {
		return nil, encodeError(fmt.Errorf("crop resolves to %dx%d pixels", rect.Width, rect.Height))
	}

	bounds := img.Bounds()
	r := image.Rect(rect.X, rect.Y, rect.X+rect.Width, rect.Y+rect.Height).
		Add(bounds.Min).
		Intersect(bounds)
	if r.Empty() {
		return nil, encodeError(fmt.Errorf("crop %v lies outside image %v", r, bounds))
	}

	return imaging.Crop(img, r), nil
}
