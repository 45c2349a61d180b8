package processor

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/phambaophuc/masscrop/internal/models"
)

// encodeImage writes img in format. quality is in [0, 1]; PNG ignores it.
func (p *ImageProcessor) encodeImage(w io.Writer, img image.Image, format string, quality float64) error {
	switch format {
	case models.FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(quality)))
	case models.FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case models.FormatWebP:
		return webp.Encode(w, img, &webp.Options{Quality: float32(clampQuality(quality) * 100)})
	default:
		return fmt.Errorf("unsupported output format: %q", format)
	}
}

func jpegQuality(quality float64) int {
	q := int(math.Round(clampQuality(quality) * 100))
	if q < 1 {
		return 1
	}
	return q
}

func clampQuality(quality float64) float64 {
	if math.IsNaN(quality) || quality < 0 {
		return 0
	}
	if quality > 1 {
		return 1
	}
	return quality
}
