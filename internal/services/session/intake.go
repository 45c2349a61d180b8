package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phambaophuc/masscrop/internal/geometry"
	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/phambaophuc/masscrop/pkg/utils"
	"go.uber.org/zap"
)

// AddFiles appends one queue item per upload. Non-image uploads become
// error items with no crop and no stored bytes. When nothing is selected the
// first accepted upload is selected.
func (s *Store) AddFiles(id string, uploads []models.Upload) ([]*models.QueueItem, error) {
	// Sniffing and inspection run before the lock is taken.
	prepared := make([]*models.QueueItem, len(uploads))
	for i, upload := range uploads {
		prepared[i] = s.prepare(upload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if s.opts.MaxFiles > 0 && len(sess.items)+len(uploads) > s.opts.MaxFiles {
		return nil, fmt.Errorf("%w: %d + %d exceeds %d", ErrTooManyFiles, len(sess.items), len(uploads), s.opts.MaxFiles)
	}

	now := s.now()
	added := make([]*models.QueueItem, 0, len(uploads))

	for i, item := range prepared {
		item.CreatedAt = now

		if utils.IsImageMIME(item.MIMEType) {
			data := uploads[i].Data
			crop := geometry.DefaultRegion(sess.settings.AspectRatio)
			item.Status = models.StatusPending
			item.Crop = &crop
			item.SourceHandle = s.blobs.Put(data, item.MIMEType)
			item.PreviewHandle = s.blobs.Put(data, item.MIMEType)
		} else {
			item.Status = models.StatusError
			item.ErrorDetail = models.MessageUnsupported
		}

		sess.items = append(sess.items, item)
		added = append(added, item.Clone())

		if sess.selectedID == "" && item.Croppable() {
			sess.selectedID = item.ID
		}

		s.logger.Info("File added to queue",
			zap.String("session_id", id),
			zap.String("item_id", item.ID),
			zap.String("name", item.Name),
			zap.String("mime_type", item.MIMEType),
			zap.Int("width", item.Width),
			zap.Int("height", item.Height),
			zap.String("status", item.Status))
	}

	s.touch(sess)
	return added, nil
}

func (s *Store) prepare(upload models.Upload) *models.QueueItem {
	item := &models.QueueItem{
		ID:       uuid.New().String(),
		Name:     upload.Name,
		MIMEType: utils.DetectMIME(upload.MIMEType, upload.Data),
		Size:     int64(len(upload.Data)),
	}

	if s.opts.Inspect == nil || !utils.IsImageMIME(item.MIMEType) {
		return item
	}
	width, height, _, err := s.opts.Inspect(upload.Data)
	if err != nil {
		s.logger.Debug("Failed to inspect image", zap.String("name", upload.Name), zap.Error(err))
		return item
	}
	item.Width = width
	item.Height = height
	return item
}

// Remove deletes one item and releases its handles.
func (s *Store) Remove(id, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}

	idx, item := sess.find(itemID)
	if item == nil {
		return ErrItemNotFound
	}

	s.releaseItem(item)
	sess.items = append(sess.items[:idx], sess.items[idx+1:]...)

	if sess.selectedID == itemID {
		sess.selectedID = ""
	}
	if sess.gesture != nil && sess.gesture.itemID == itemID {
		sess.gesture = nil
	}

	s.touch(sess)
	return nil
}

// Clear empties the queue and releases every handle.
func (s *Store) Clear(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}

	for _, item := range sess.items {
		s.releaseItem(item)
	}
	sess.items = nil
	sess.selectedID = ""
	sess.gesture = nil

	s.touch(sess)
	return nil
}

func (s *Store) Select(id, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	if _, item := sess.find(itemID); item == nil {
		return ErrItemNotFound
	}

	sess.selectedID = itemID
	s.touch(sess)
	return nil
}

// Item returns a copy of one queue item.
func (s *Store) Item(id, itemID string) (*models.QueueItem, error) {
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
	return item.Clone(), nil
}
