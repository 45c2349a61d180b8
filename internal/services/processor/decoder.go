package processor

import (
	"bytes"
	"errors"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// decodeImage honours EXIF orientation so percentages map onto the image
// as it is displayed. WebP variants the x/image decoder rejects are retried
// with libwebp.
func (p *ImageProcessor) decodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", decodeError(errors.New("empty source"))
	}

	_, format, cfgErr := image.DecodeConfig(bytes.NewReader(data))

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err == nil {
		return img, format, nil
	}

	if webpImg, webpErr := webp.Decode(bytes.NewReader(data)); webpErr == nil {
		return webpImg, "webp", nil
	}

	if cfgErr != nil {
		return nil, "", decodeError(cfgErr)
	}
	return nil, "", decodeError(err)
}
