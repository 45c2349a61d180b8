package session

import (
	"errors"

	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/phambaophuc/masscrop/internal/services/storage"
)

var ErrNoPayload = errors.New("item has no such payload")

// Preview returns the display bytes stored for an item at intake.
func (s *Store) Preview(id, itemID string) (*models.QueueItem, storage.Blob, error) {
	return s.payload(id, itemID, func(item *models.QueueItem) string { return item.PreviewHandle })
}

// Output returns the last encoded result of an item.
func (s *Store) Output(id, itemID string) (*models.QueueItem, storage.Blob, error) {
	return s.payload(id, itemID, func(item *models.QueueItem) string { return item.OutputHandle })
}

func (s *Store) payload(id, itemID string, handle func(*models.QueueItem) string) (*models.QueueItem, storage.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, storage.Blob{}, err
	}
	_, item := sess.find(itemID)
	if item == nil {
		return nil, storage.Blob{}, ErrItemNotFound
	}

	blob, ok := s.blobs.Get(handle(item))
	if !ok {
		return nil, storage.Blob{}, ErrNoPayload
	}
	return item.Clone(), blob, nil
}
