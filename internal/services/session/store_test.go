package session

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/phambaophuc/masscrop/internal/geometry"
	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/phambaophuc/masscrop/internal/services/interaction"
	"github.com/phambaophuc/masscrop/internal/services/storage"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) (*Store, *storage.BlobStore) {
	t.Helper()
	blobs := storage.NewBlobStore()
	return NewStore(blobs, zaptest.NewLogger(t), Options{MaxFiles: 10}), blobs
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func createSession(t *testing.T, s *Store, uploads ...models.Upload) (string, []*models.QueueItem) {
	t.Helper()
	view, err := s.Create(models.DefaultSettings())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	items, err := s.AddFiles(view.ID, uploads)
	if err != nil {
		t.Fatalf("AddFiles failed: %v", err)
	}
	return view.ID, items
}

func TestAddFiles_Intake(t *testing.T) {
	s, blobs := newTestStore(t)
	id, items := createSession(t, s,
		models.Upload{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("hello")},
		models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)},
		models.Upload{Name: "b.png", Data: pngBytes(t)},
	)

	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}

	unsupported := items[0]
	if unsupported.Status != models.StatusError || unsupported.ErrorDetail != "Unsupported file format." {
		t.Errorf("Unexpected unsupported item %+v", unsupported)
	}
	if unsupported.Crop != nil || unsupported.SourceHandle != "" {
		t.Error("Unsupported item must not own a crop or bytes")
	}

	for _, item := range items[1:] {
		if item.Status != models.StatusPending {
			t.Errorf("Expected pending, got %s", item.Status)
		}
		if item.Crop == nil || *item.Crop != geometry.DefaultRegion(nil) {
			t.Errorf("Expected default crop, got %+v", item.Crop)
		}
	}
	if items[2].MIMEType != "image/png" {
		t.Errorf("Expected sniffed image/png, got %s", items[2].MIMEType)
	}

	// Source and preview handles for the two images.
	if blobs.Len() != 4 {
		t.Errorf("Expected 4 live handles, got %d", blobs.Len())
	}

	view, _ := s.Get(id)
	if view.SelectedID != items[1].ID {
		t.Errorf("Expected first image to be selected, got %q", view.SelectedID)
	}
}

func TestAddFiles_UsesAspectRatioForDefaultCrop(t *testing.T) {
	s, _ := newTestStore(t)
	settings := models.DefaultSettings()
	settings.AspectRatio = geometry.Ratio(16.0 / 9.0)

	view, err := s.Create(settings)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	items, err := s.AddFiles(view.ID, []models.Upload{{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)}})
	if err != nil {
		t.Fatalf("AddFiles failed: %v", err)
	}

	if *items[0].Crop != geometry.DefaultRegion(settings.AspectRatio) {
		t.Errorf("Unexpected crop %+v", items[0].Crop)
	}
}

func TestAddFiles_TooMany(t *testing.T) {
	s, _ := newTestStore(t)
	view, _ := s.Create(models.DefaultSettings())

	uploads := make([]models.Upload, 11)
	_, err := s.AddFiles(view.ID, uploads)
	if !errors.Is(err, ErrTooManyFiles) {
		t.Errorf("Expected ErrTooManyFiles, got %v", err)
	}
}

func TestRemoveAndClear_ReleaseHandles(t *testing.T) {
	s, blobs := newTestStore(t)
	id, items := createSession(t, s,
		models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)},
		models.Upload{Name: "b.png", MIMEType: "image/png", Data: pngBytes(t)},
	)
	if _, ok := s.Complete(id, items[0].ID, []byte("out"), "image/png"); !ok {
		t.Fatal("Complete failed")
	}
	if blobs.Len() != 5 {
		t.Fatalf("Expected 5 handles, got %d", blobs.Len())
	}

	if err := s.Remove(id, items[0].ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if blobs.Len() != 2 {
		t.Errorf("Expected 2 handles after remove, got %d", blobs.Len())
	}
	view, _ := s.Get(id)
	if view.SelectedID != "" {
		t.Errorf("Expected selection cleared, got %q", view.SelectedID)
	}
	if err := s.Remove(id, items[0].ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}

	if err := s.Clear(id); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if blobs.Len() != 0 {
		t.Errorf("Expected no handles after clear, got %d", blobs.Len())
	}
	view, _ = s.Get(id)
	if len(view.Items) != 0 {
		t.Errorf("Expected empty queue, got %d items", len(view.Items))
	}
}

func TestSetCrop(t *testing.T) {
	s, _ := newTestStore(t)
	id, items := createSession(t, s,
		models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)},
		models.Upload{Name: "a.pdf", MIMEType: "application/pdf", Data: []byte("%PDF")},
	)

	region := geometry.CropRegion{X: 10, Y: 20, Width: 30, Height: 40}
	item, err := s.SetCrop(id, items[0].ID, region)
	if err != nil {
		t.Fatalf("SetCrop failed: %v", err)
	}
	if *item.Crop != region {
		t.Errorf("Expected %+v, got %+v", region, item.Crop)
	}

	if _, err := s.SetCrop(id, items[0].ID, geometry.CropRegion{X: 90, Y: 0, Width: 20, Height: 20}); !errors.Is(err, ErrInvalidCrop) {
		t.Errorf("Expected ErrInvalidCrop, got %v", err)
	}
	if _, err := s.SetCrop(id, items[1].ID, region); !errors.Is(err, ErrNotCroppable) {
		t.Errorf("Expected ErrNotCroppable, got %v", err)
	}
}

func TestSetCrop_ResetsFailedItem(t *testing.T) {
	s, _ := newTestStore(t)
	id, items := createSession(t, s, models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)})

	s.Fail(id, items[0].ID, "Processing failed: boom")

	item, err := s.SetCrop(id, items[0].ID, geometry.DefaultRegion(nil))
	if err != nil {
		t.Fatalf("SetCrop failed: %v", err)
	}
	if item.Status != models.StatusPending || item.ErrorDetail != "" {
		t.Errorf("Expected pending item with no error, got %+v", item)
	}
}

func TestBroadcast(t *testing.T) {
	s, _ := newTestStore(t)
	id, items := createSession(t, s,
		models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)},
		models.Upload{Name: "b.png", MIMEType: "image/png", Data: pngBytes(t)},
		models.Upload{Name: "c.txt", MIMEType: "text/plain", Data: []byte("x")},
		models.Upload{Name: "d.png", MIMEType: "image/png", Data: pngBytes(t)},
	)

	region := geometry.CropRegion{X: 0, Y: 0, Width: 100, Height: 60}
	if _, err := s.SetCrop(id, items[1].ID, region); err != nil {
		t.Fatalf("SetCrop failed: %v", err)
	}

	updated, err := s.Broadcast(id, items[1].ID)
	if err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}
	if updated != 2 {
		t.Errorf("Expected 2 items updated, got %d", updated)
	}

	view, _ := s.Get(id)
	for _, item := range view.Items {
		if !item.Croppable() {
			if item.Crop != nil {
				t.Error("Broadcast must skip unsupported items")
			}
			continue
		}
		if *item.Crop != region {
			t.Errorf("Item %s has crop %+v, want %+v", item.Name, item.Crop, region)
		}
	}

	// Regions are copied, not shared.
	if _, err := s.SetCrop(id, items[0].ID, geometry.DefaultRegion(nil)); err != nil {
		t.Fatalf("SetCrop failed: %v", err)
	}
	other, _ := s.Item(id, items[3].ID)
	if *other.Crop != region {
		t.Error("Broadcast regions must not alias each other")
	}
}

func TestUpdateSettings(t *testing.T) {
	s, _ := newTestStore(t)
	id, items := createSession(t, s, models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)})

	custom := geometry.CropRegion{X: 1, Y: 1, Width: 10, Height: 10}
	s.SetCrop(id, items[0].ID, custom)

	format := "png"
	quality := 0.4
	settings, err := s.UpdateSettings(id, models.SettingsRequest{Format: &format, Quality: &quality})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if settings.Format != models.FormatPNG || settings.Quality != 0.4 {
		t.Errorf("Unexpected settings %+v", settings)
	}
	item, _ := s.Item(id, items[0].ID)
	if *item.Crop != custom {
		t.Error("Crop must survive a settings change that keeps the ratio")
	}

	ratio := "1:1"
	if _, err := s.UpdateSettings(id, models.SettingsRequest{AspectRatio: &ratio}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	item, _ = s.Item(id, items[0].ID)
	if *item.Crop != geometry.DefaultRegion(geometry.Ratio(1)) {
		t.Errorf("Expected crop reset for new ratio, got %+v", item.Crop)
	}

	bad := "webm"
	if _, err := s.UpdateSettings(id, models.SettingsRequest{Format: &bad}); err == nil {
		t.Error("Expected unsupported format to be rejected")
	}
	view, _ := s.Get(id)
	if view.Settings.Format != models.FormatPNG {
		t.Error("Rejected update must not change settings")
	}
}

func TestUpdateSettings_ResetsFailedItems(t *testing.T) {
	s, _ := newTestStore(t)
	id, items := createSession(t, s,
		models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)},
		models.Upload{Name: "b.png", MIMEType: "image/png", Data: pngBytes(t)},
		models.Upload{Name: "c.txt", MIMEType: "text/plain", Data: []byte("x")},
	)
	custom := geometry.CropRegion{X: 1, Y: 1, Width: 10, Height: 10}
	s.SetCrop(id, items[0].ID, custom)
	s.Fail(id, items[0].ID, "Processing failed: boom")
	s.Complete(id, items[1].ID, []byte("out"), "image/jpeg")

	same := "jpeg"
	if _, err := s.UpdateSettings(id, models.SettingsRequest{Format: &same}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if item, _ := s.Item(id, items[0].ID); item.Status != models.StatusError {
		t.Errorf("Expected an unchanged setting to leave the item failed, got %s", item.Status)
	}

	format := "png"
	if _, err := s.UpdateSettings(id, models.SettingsRequest{Format: &format}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	failed, _ := s.Item(id, items[0].ID)
	if failed.Status != models.StatusPending || failed.ErrorDetail != "" || failed.Progress != models.ProgressNone {
		t.Errorf("Expected the failed image back in pending, got %+v", failed)
	}
	if *failed.Crop != custom {
		t.Errorf("Crop must survive a format change, got %+v", failed.Crop)
	}
	if done, _ := s.Item(id, items[1].ID); done.Status != models.StatusCompleted {
		t.Errorf("Completed items must keep their output, got %s", done.Status)
	}
	if unsupported, _ := s.Item(id, items[2].ID); unsupported.Status != models.StatusError {
		t.Errorf("Unsupported uploads must stay in error, got %s", unsupported.Status)
	}
}

func TestGesture_CommitsToSelectedItem(t *testing.T) {
	s, _ := newTestStore(t)
	id, items := createSession(t, s,
		models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)},
		models.Upload{Name: "b.png", MIMEType: "image/png", Data: pngBytes(t)},
	)
	if err := s.Select(id, items[1].ID); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	state, err := s.BeginGesture(id, interaction.HandleMove, interaction.Point{X: 0, Y: 0})
	if err != nil {
		t.Fatalf("BeginGesture failed: %v", err)
	}
	if state.State != interaction.Dragging || state.ItemID != items[1].ID {
		t.Errorf("Unexpected state %+v", state)
	}

	if _, err := s.BeginGesture(id, interaction.HandleResize, interaction.Point{}); !errors.Is(err, interaction.ErrGestureActive) {
		t.Errorf("Expected ErrGestureActive, got %v", err)
	}

	state, _ = s.MoveGesture(id, interaction.Point{X: -100, Y: 50}, interaction.Size{Width: 200, Height: 200})
	want := geometry.CropRegion{X: 0, Y: 50, Width: 50, Height: 50}
	if state.Region != want {
		t.Errorf("Expected %+v, got %+v", want, state.Region)
	}

	// The item only changes on release.
	item, _ := s.Item(id, items[1].ID)
	if *item.Crop != geometry.DefaultRegion(nil) {
		t.Error("Crop changed before the gesture ended")
	}

	state, _ = s.EndGesture(id)
	if state.State != interaction.Idle {
		t.Errorf("Expected idle, got %s", state.State)
	}
	item, _ = s.Item(id, items[1].ID)
	if *item.Crop != want {
		t.Errorf("Expected committed %+v, got %+v", want, item.Crop)
	}
	untouched, _ := s.Item(id, items[0].ID)
	if *untouched.Crop != geometry.DefaultRegion(nil) {
		t.Error("Gesture leaked onto another item")
	}

	idle, _ := s.MoveGesture(id, interaction.Point{X: 10}, interaction.Size{Width: 10, Height: 10})
	if idle.State != interaction.Idle {
		t.Errorf("Expected idle move to be a no-op, got %+v", idle)
	}
}

func TestGesture_RemovedItemDropsGesture(t *testing.T) {
	s, _ := newTestStore(t)
	id, items := createSession(t, s, models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)})

	if _, err := s.BeginGesture(id, interaction.HandleResize, interaction.Point{}); err != nil {
		t.Fatalf("BeginGesture failed: %v", err)
	}
	s.Remove(id, items[0].ID)

	state, err := s.EndGesture(id)
	if err != nil || state.State != interaction.Idle || state.ItemID != "" {
		t.Errorf("Expected idle no-op end, got %+v, %v", state, err)
	}

	if _, err := s.BeginGesture(id, interaction.HandleMove, interaction.Point{}); !errors.Is(err, ErrNoSelection) {
		t.Errorf("Expected ErrNoSelection, got %v", err)
	}
}

func TestBatchWriters(t *testing.T) {
	s, blobs := newTestStore(t)
	id, items := createSession(t, s,
		models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)},
		models.Upload{Name: "b.txt", MIMEType: "text/plain", Data: []byte("x")},
	)

	_, runnable, err := s.BeginBatch(id)
	if err != nil {
		t.Fatalf("BeginBatch failed: %v", err)
	}
	if len(runnable) != 1 || runnable[0].ID != items[0].ID {
		t.Fatalf("Expected only the image to be runnable, got %v", runnable)
	}
	if _, _, err := s.BeginBatch(id); !errors.Is(err, ErrBatchRunning) {
		t.Errorf("Expected ErrBatchRunning, got %v", err)
	}

	item, source, ok := s.MarkProcessing(id, items[0].ID)
	if !ok || item.Status != models.StatusProcessing || item.Progress != 50 || len(source) == 0 {
		t.Fatalf("Unexpected MarkProcessing result %+v, %d bytes, %v", item, len(source), ok)
	}

	before := blobs.Len()
	s.Complete(id, items[0].ID, []byte("first"), "image/png")
	item, _ = s.Complete(id, items[0].ID, []byte("second"), "image/png")
	if blobs.Len() != before+1 {
		t.Errorf("Reprocessing leaked a handle: %d -> %d", before, blobs.Len())
	}
	if item.Status != models.StatusCompleted || item.Progress != 100 || item.OutputSize != 6 {
		t.Errorf("Unexpected completed item %+v", item)
	}
	_, out, err := s.Output(id, items[0].ID)
	if err != nil || string(out.Data) != "second" {
		t.Errorf("Expected latest output, got %q, %v", out.Data, err)
	}

	item, _ = s.Fail(id, items[0].ID, "Processing failed: boom")
	if item.OutputHandle != "" || blobs.Len() != before {
		t.Error("Fail must release the stale output")
	}

	s.EndBatch(id)
	if view, _ := s.Get(id); view.Processing {
		t.Error("Expected processing flag cleared")
	}
}

func TestBatchWriters_RemovedItemIsNoop(t *testing.T) {
	s, blobs := newTestStore(t)
	id, items := createSession(t, s, models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)})

	s.Remove(id, items[0].ID)

	if _, _, ok := s.MarkProcessing(id, items[0].ID); ok {
		t.Error("Expected MarkProcessing on removed item to fail")
	}
	if _, ok := s.Complete(id, items[0].ID, []byte("out"), "image/png"); ok {
		t.Error("Expected Complete on removed item to be a no-op")
	}
	if _, ok := s.Fail(id, "missing", "x"); ok {
		t.Error("Expected Fail on missing item to be a no-op")
	}
	if blobs.Len() != 0 {
		t.Errorf("Expected no live handles, got %d", blobs.Len())
	}

	s.Delete(id)
	s.EndBatch(id)
}

func TestSweep(t *testing.T) {
	s, blobs := newTestStore(t)
	now := time.Now()
	s.now = func() time.Time { return now }

	idle, _ := createSession(t, s, models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)})
	busy, _ := createSession(t, s)
	s.BeginBatch(busy)

	now = now.Add(3 * time.Hour)
	fresh, _ := createSession(t, s)

	if removed := s.Sweep(time.Hour); removed != 1 {
		t.Errorf("Expected 1 session swept, got %d", removed)
	}
	if _, err := s.Get(idle); !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected idle session to be removed")
	}
	if _, err := s.Get(busy); err != nil {
		t.Error("Processing session must survive a sweep")
	}
	if _, err := s.Get(fresh); err != nil {
		t.Error("Fresh session must survive a sweep")
	}
	if blobs.Len() != 0 {
		t.Errorf("Expected swept handles to be released, got %d", blobs.Len())
	}
}

func TestAddFiles_RecordsNaturalSize(t *testing.T) {
	var inspected int
	blobs := storage.NewBlobStore()
	s := NewStore(blobs, zaptest.NewLogger(t), Options{
		Inspect: func(data []byte) (int, int, string, error) {
			inspected++
			if bytes.Equal(data, []byte("broken")) {
				return 0, 0, "", errors.New("unreadable")
			}
			return 640, 480, "png", nil
		},
	})

	id, items := createSession(t, s,
		models.Upload{Name: "a.png", MIMEType: "image/png", Data: pngBytes(t)},
		models.Upload{Name: "broken.png", MIMEType: "image/png", Data: []byte("broken")},
		models.Upload{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("x")},
	)

	if inspected != 2 {
		t.Errorf("Expected only images to be inspected, got %d calls", inspected)
	}
	if items[0].Width != 640 || items[0].Height != 480 {
		t.Errorf("Expected 640x480, got %dx%d", items[0].Width, items[0].Height)
	}
	if items[1].Status != models.StatusPending || items[1].Width != 0 {
		t.Errorf("Unreadable image must stay pending without a size, got %+v", items[1])
	}

	stored, _ := s.Item(id, items[0].ID)
	if stored.Width != 640 {
		t.Error("Size must be kept on the stored item")
	}
}
