package processor

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Preview renders a JPEG thumbnail that fits in maxDim x maxDim.
func (p *ImageProcessor) Preview(data []byte, maxDim int) ([]byte, error) {
	if maxDim <= 0 {
		maxDim = DefaultPreviewSize
	}

	img, _, err := p.decodeImage(data)
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)

	buffer := &bytes.Buffer{}
	if err := imaging.Encode(buffer, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buffer.Bytes(), nil
}
