package session

import (
	"fmt"

	"github.com/phambaophuc/masscrop/internal/geometry"
	"github.com/phambaophuc/masscrop/internal/models"
	"go.uber.org/zap"
)

// SetCrop replaces one item's crop region. An item that failed a previous
// batch goes back to pending: a new crop is the user's fix for it.
func (s *Store) SetCrop(id, itemID string, region geometry.CropRegion) (*models.QueueItem, error) {
	if !region.Valid() {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidCrop, region)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	_, item := sess.find(itemID)
	if item == nil {
		return nil, ErrItemNotFound
	}
	if !item.Croppable() {
		return nil, ErrNotCroppable
	}

	s.applyCrop(item, region)
	s.touch(sess)
	return item.Clone(), nil
}

// Broadcast copies the crop of fromItemID onto every other croppable item
// and returns how many items were updated.
func (s *Store) Broadcast(id, fromItemID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	_, from := sess.find(fromItemID)
	if from == nil {
		return 0, ErrItemNotFound
	}
	if !from.Croppable() {
		return 0, ErrNotCroppable
	}

	region := *from.Crop
	updated := 0
	for _, item := range sess.items {
		if item.ID == fromItemID || !item.Croppable() {
			continue
		}
		s.applyCrop(item, region)
		updated++
	}

	s.touch(sess)
	s.logger.Info("Crop broadcast",
		zap.String("session_id", id),
		zap.String("from_item_id", fromItemID),
		zap.Int("updated", updated))
	return updated, nil
}

// UpdateSettings applies a partial settings change. Changing the aspect
// ratio resets every crop to the default region for the new ratio. Any
// effective change sends failed items that still have a crop back to pending.
func (s *Store) UpdateSettings(id string, req models.SettingsRequest) (models.ProcessingSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return models.ProcessingSettings{}, err
	}

	next := sess.settings.Clone()
	ratioChanged := false

	if req.AspectRatio != nil {
		ratio, err := geometry.ParseAspectRatio(*req.AspectRatio)
		if err != nil {
			return models.ProcessingSettings{}, err
		}
		ratioChanged = !sameRatio(next.AspectRatio, ratio)
		next.AspectRatio = ratio
	}
	if req.Format != nil {
		format, err := models.NormalizeFormat(*req.Format)
		if err != nil {
			return models.ProcessingSettings{}, err
		}
		next.Format = format
	}
	if req.Quality != nil {
		next.Quality = *req.Quality
	}
	if err := next.Validate(); err != nil {
		return models.ProcessingSettings{}, err
	}

	changed := ratioChanged || next.Format != sess.settings.Format || next.Quality != sess.settings.Quality
	sess.settings = next
	switch {
	case ratioChanged:
		region := geometry.DefaultRegion(next.AspectRatio)
		for _, item := range sess.items {
			if item.Croppable() {
				s.applyCrop(item, region)
			}
		}
	case changed:
		for _, item := range sess.items {
			if item.Croppable() {
				requeue(item)
			}
		}
	}

	s.touch(sess)
	return next.Clone(), nil
}

func (s *Store) applyCrop(item *models.QueueItem, region geometry.CropRegion) {
	crop := region
	item.Crop = &crop
	requeue(item)
}

// requeue moves a failed item back to pending. Other states are untouched.
func requeue(item *models.QueueItem) {
	if item.Status == models.StatusError {
		item.Status = models.StatusPending
		item.ErrorDetail = ""
		item.Progress = models.ProgressNone
	}
}

func sameRatio(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
