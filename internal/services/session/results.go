package session

import (
	"github.com/phambaophuc/masscrop/internal/models"
)

// BeginBatch flags the session as processing and returns the settings and
// the items a batch should run, in queue order. Items in error are left out.
func (s *Store) BeginBatch(id string) (models.ProcessingSettings, []*models.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return models.ProcessingSettings{}, nil, err
	}
	if sess.processing {
		return models.ProcessingSettings{}, nil, ErrBatchRunning
	}

	var runnable []*models.QueueItem
	for _, item := range sess.items {
		if item.Runnable() {
			runnable = append(runnable, item.Clone())
		}
	}

	sess.processing = true
	s.touch(sess)
	return sess.settings.Clone(), runnable, nil
}

// EndBatch clears the processing flag. It tolerates a deleted session.
func (s *Store) EndBatch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.processing = false
		s.touch(sess)
	}
}

// MarkProcessing moves an item to processing and returns its current state
// along with its source bytes. It reports false when the item is gone.
func (s *Store) MarkProcessing(id, itemID string) (*models.QueueItem, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.liveItem(id, itemID)
	if item == nil || !item.Croppable() {
		return nil, nil, false
	}
	source, ok := s.blobs.Get(item.SourceHandle)
	if !ok {
		return nil, nil, false
	}

	item.Status = models.StatusProcessing
	item.ErrorDetail = ""
	item.Progress = models.ProgressProcessing
	return item.Clone(), source.Data, true
}

// Complete stores output for the item, releasing any previous output. When
// the item no longer exists nothing is stored and false is returned.
func (s *Store) Complete(id, itemID string, output []byte, contentType string) (*models.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.liveItem(id, itemID)
	if item == nil {
		return nil, false
	}

	s.blobs.Release(item.OutputHandle)
	at := s.now()
	item.OutputHandle = s.blobs.Put(output, contentType)
	item.OutputSize = int64(len(output))
	item.Status = models.StatusCompleted
	item.ErrorDetail = ""
	item.Progress = models.ProgressDone
	item.ProcessedAt = &at
	return item.Clone(), true
}

// Fail records a transform failure and drops any stale output.
func (s *Store) Fail(id, itemID, detail string) (*models.QueueItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.liveItem(id, itemID)
	if item == nil {
		return nil, false
	}

	s.blobs.Release(item.OutputHandle)
	item.OutputHandle = ""
	item.OutputSize = 0
	item.Status = models.StatusError
	item.ErrorDetail = detail
	item.Progress = models.ProgressNone
	return item.Clone(), true
}

func (s *Store) liveItem(id, itemID string) *models.QueueItem {
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	_, item := sess.find(itemID)
	return item
}
