package processor

import (
	"bytes"
	"errors"

	"github.com/phambaophuc/masscrop/internal/geometry"
	"github.com/phambaophuc/masscrop/internal/models"
)

const DefaultPreviewSize = 512

type ImageProcessor struct{}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{}
}

// Apply decodes src, cuts out region and encodes the result with the
// requested format and quality.
func (p *ImageProcessor) Apply(src []byte, region geometry.CropRegion, settings models.ProcessingSettings) ([]byte, error) {
	format, err := models.NormalizeFormat(settings.Format)
	if err != nil {
		return nil, encodeError(err)
	}

	img, _, err := p.decodeImage(src)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	rect := region.ToPixels(bounds.Dx(), bounds.Dy())

	cropped, err := p.cropImage(img, rect)
	if err != nil {
		return nil, err
	}

	buffer := &bytes.Buffer{}
	if err := p.encodeImage(buffer, cropped, format, settings.Quality); err != nil {
		return nil, encodeError(err)
	}
	if buffer.Len() == 0 {
		return nil, encodeError(errors.New("encoder produced no output"))
	}

	return buffer.Bytes(), nil
}
