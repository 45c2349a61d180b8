package processor

import (
	"bytes"
	"image"
)

// ImageInfo returns the natural dimensions and format name of data without
// decoding pixels when the format allows it.
func (p *ImageProcessor) ImageInfo(data []byte) (int, int, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return cfg.Width, cfg.Height, format, nil
	}

	img, format, err := p.decodeImage(data)
	if err != nil {
		return 0, 0, "", err
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), format, nil
}
