package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/phambaophuc/masscrop/internal/config"
	"github.com/phambaophuc/masscrop/internal/geometry"
	"github.com/phambaophuc/masscrop/internal/models"
	"go.uber.org/zap/zaptest"
)

func TestBlobStore_PutGetRelease(t *testing.T) {
	blobs := NewBlobStore()

	handle := blobs.Put([]byte("hello"), "text/plain")
	if handle == "" {
		t.Fatal("Expected a handle")
	}

	blob, ok := blobs.Get(handle)
	if !ok || string(blob.Data) != "hello" || blob.ContentType != "text/plain" {
		t.Fatalf("Unexpected blob %+v (found=%v)", blob, ok)
	}
	if blobs.Len() != 1 || blobs.Size() != 5 {
		t.Errorf("Expected 1 blob of 5 bytes, got %d blobs of %d bytes", blobs.Len(), blobs.Size())
	}

	if !blobs.Release(handle) {
		t.Error("Expected first release to succeed")
	}
	if blobs.Release(handle) {
		t.Error("Expected second release to be a no-op")
	}
	if blobs.Release("") {
		t.Error("Expected empty handle release to be a no-op")
	}
	if blobs.Len() != 0 || blobs.Size() != 0 {
		t.Errorf("Expected empty store, got %d blobs of %d bytes", blobs.Len(), blobs.Size())
	}
	if _, ok := blobs.Get(handle); ok {
		t.Error("Expected released handle to be gone")
	}
}

func TestGenerateCacheKey(t *testing.T) {
	source := []byte("source")
	region := geometry.DefaultRegion(nil)
	settings := models.DefaultSettings()

	key := GenerateCacheKey(source, region, settings)
	if key != GenerateCacheKey(source, region, settings) {
		t.Error("Expected deterministic cache key")
	}

	moved := region
	moved.X++
	if key == GenerateCacheKey(source, moved, settings) {
		t.Error("Expected crop to change the key")
	}

	png := settings
	png.Format = models.FormatPNG
	if key == GenerateCacheKey(source, region, png) {
		t.Error("Expected format to change the key")
	}

	if key == GenerateCacheKey([]byte("other"), region, settings) {
		t.Error("Expected source bytes to change the key")
	}
}

func TestStorageService_Unconfigured(t *testing.T) {
	s, err := NewStorageService(&config.Config{}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewStorageService failed: %v", err)
	}

	ctx := context.Background()

	data, err := s.GetFromCache(ctx, "k")
	if data != nil || err != nil {
		t.Errorf("Expected silent miss, got %v, %v", data, err)
	}
	if err := s.SetCache(ctx, "k", []byte("v")); err != nil {
		t.Errorf("Expected no-op set, got %v", err)
	}

	_, err = s.Export(ctx, &models.Artifact{Filename: "a.png", Data: []byte("x")})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}

	if _, err := s.GetCacheStats(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured for cache stats, got %v", err)
	}

	status := s.HealthCheck(ctx)
	if status["redis"] != statusNotConfigured || status["supabase"] != statusNotConfigured {
		t.Errorf("Unexpected health status %v", status)
	}
}
