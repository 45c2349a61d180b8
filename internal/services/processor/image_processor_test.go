package processor

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/phambaophuc/masscrop/internal/geometry"
	"github.com/phambaophuc/masscrop/internal/models"
)

// createTestImage paints the quadrant starting at (width/4, height/4) red so
// crops of the centered default region can be checked pixel by pixel.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x >= width/4 && y >= height/4 {
				img.Set(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.Set(x, y, color.RGBA{0, 0, 255, 255})
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func settings(format string, quality float64) models.ProcessingSettings {
	return models.ProcessingSettings{Format: format, Quality: quality}
}

func TestApply_CropsToPixelRectangle(t *testing.T) {
	p := NewImageProcessor()
	src := encodePNG(t, createTestImage(1000, 500))

	out, err := p.Apply(src, geometry.CropRegion{X: 25, Y: 25, Width: 50, Height: 50}, settings(models.FormatPNG, 0.9))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 500 || bounds.Dy() != 250 {
		t.Errorf("Expected dimensions 500x250, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("Expected top-left output pixel to be red, got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestApply_JPEGHonoursQuality(t *testing.T) {
	p := NewImageProcessor()
	src := encodePNG(t, createTestImage(400, 300))
	region := geometry.CropRegion{X: 0, Y: 0, Width: 100, Height: 100}

	low, err := p.Apply(src, region, settings(models.FormatJPEG, 0.1))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	high, err := p.Apply(src, region, settings(models.FormatJPEG, 1))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if len(low) >= len(high) {
		t.Errorf("Expected low quality output (%d bytes) to be smaller than high quality (%d bytes)", len(low), len(high))
	}

	if _, err := jpeg.Decode(bytes.NewReader(low)); err != nil {
		t.Errorf("Output is not a JPEG: %v", err)
	}
}

func TestApply_PNGIgnoresQuality(t *testing.T) {
	p := NewImageProcessor()
	src := encodePNG(t, createTestImage(200, 200))
	region := geometry.DefaultRegion(nil)

	a, err := p.Apply(src, region, settings(models.FormatPNG, 0))
	if err != nil {
		t.Fatalf("Apply with quality 0 failed: %v", err)
	}
	b, err := p.Apply(src, region, settings(models.FormatPNG, 1))
	if err != nil {
		t.Fatalf("Apply with quality 1 failed: %v", err)
	}

	if !bytes.Equal(a, b) {
		t.Error("Expected PNG output to be identical regardless of quality")
	}
}

func TestApply_WebP(t *testing.T) {
	p := NewImageProcessor()
	src := encodePNG(t, createTestImage(320, 240))

	out, err := p.Apply(src, geometry.CropRegion{X: 50, Y: 50, Width: 50, Height: 50}, settings(models.FormatWebP, 0.8))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	img, err := webp.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Output is not a WebP: %v", err)
	}
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 120 {
		t.Errorf("Expected dimensions 160x120, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestApply_WebPSourceDecodes(t *testing.T) {
	p := NewImageProcessor()

	var buf bytes.Buffer
	if err := webp.Encode(&buf, createTestImage(100, 100), &webp.Options{Lossless: true}); err != nil {
		t.Fatalf("Failed to encode WebP source: %v", err)
	}

	out, err := p.Apply(buf.Bytes(), geometry.DefaultRegion(nil), settings(models.FormatPNG, 1))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) == 0 {
		t.Error("Expected output bytes")
	}
}

func TestApply_CorruptSourceIsDecodeError(t *testing.T) {
	p := NewImageProcessor()

	_, err := p.Apply([]byte("definitely not an image"), geometry.DefaultRegion(nil), settings(models.FormatPNG, 1))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Expected ErrDecode, got %v", err)
	}
	if errors.Is(err, ErrEncode) {
		t.Error("Decode failure must not match ErrEncode")
	}
}

func TestApply_ZeroAreaIsEncodeError(t *testing.T) {
	p := NewImageProcessor()
	src := encodePNG(t, createTestImage(9, 9))

	_, err := p.Apply(src, geometry.CropRegion{X: 0, Y: 0, Width: 5, Height: 5}, settings(models.FormatPNG, 1))
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("Expected ErrEncode, got %v", err)
	}
}

func TestApply_UnknownFormatIsEncodeError(t *testing.T) {
	p := NewImageProcessor()
	src := encodePNG(t, createTestImage(50, 50))

	_, err := p.Apply(src, geometry.DefaultRegion(nil), settings("gif", 1))
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("Expected ErrEncode, got %v", err)
	}
}

func TestImageInfo(t *testing.T) {
	p := NewImageProcessor()
	src := encodePNG(t, createTestImage(640, 480))

	w, h, format, err := p.ImageInfo(src)
	if err != nil {
		t.Fatalf("ImageInfo failed: %v", err)
	}
	if w != 640 || h != 480 || format != "png" {
		t.Errorf("Expected 640x480 png, got %dx%d %s", w, h, format)
	}
}

func TestPreview(t *testing.T) {
	p := NewImageProcessor()
	src := encodePNG(t, createTestImage(800, 400))

	out, err := p.Preview(src, 200)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("Preview is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("Expected 200x100 preview, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}
