package models

import "testing"

func TestNormalizeFormat(t *testing.T) {
	tests := map[string]string{"jpg": FormatJPEG, "JPEG": FormatJPEG, "png": FormatPNG, " webp ": FormatWebP}
	for in, want := range tests {
		got, err := NormalizeFormat(in)
		if err != nil || got != want {
			t.Errorf("NormalizeFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := NormalizeFormat("gif"); err == nil {
		t.Error("Expected gif to be rejected")
	}
}

func TestNewSettings(t *testing.T) {
	s, err := NewSettings("jpg", 0.75, "16:9")
	if err != nil {
		t.Fatalf("NewSettings failed: %v", err)
	}
	if s.Format != FormatJPEG || s.Quality != 0.75 || s.AspectRatio == nil {
		t.Errorf("Unexpected settings %+v", s)
	}

	if _, err := NewSettings("png", 1.5, ""); err == nil {
		t.Error("Expected quality above 1 to be rejected")
	}
	if _, err := NewSettings("png", 0.5, "wide"); err == nil {
		t.Error("Expected bad aspect ratio to be rejected")
	}
}

func TestProcessingSettings_Clone(t *testing.T) {
	s, _ := NewSettings("png", 1, "1:1")
	c := s.Clone()
	*c.AspectRatio = 2

	if *s.AspectRatio != 1 {
		t.Error("Clone shares the aspect ratio pointer")
	}
}
