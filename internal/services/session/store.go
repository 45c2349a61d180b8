// Package session owns the queue of images for each editing session. The
// Store is the single writer of queue items; every mutation runs under one
// lock so no partially applied update is ever observable.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/phambaophuc/masscrop/internal/services/interaction"
	"github.com/phambaophuc/masscrop/internal/services/storage"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrBatchRunning    = errors.New("batch already running")
	ErrNotCroppable    = errors.New("item has no crop region")
	ErrInvalidCrop     = errors.New("invalid crop region")
	ErrTooManyFiles    = errors.New("too many files in session")
	ErrNoSelection     = errors.New("no item selected")
)

type Options struct {
	MaxFiles int
	// Inspect, when set, reports the natural size of an accepted image at
	// intake. Failures leave the size unset; decoding is judged at batch time.
	Inspect func(data []byte) (width, height int, format string, err error)
}

type session struct {
	id         string
	items      []*models.QueueItem
	selectedID string
	settings   models.ProcessingSettings
	processing bool
	gesture    *gesture
	createdAt  time.Time
	updatedAt  time.Time
}

type gesture struct {
	itemID     string
	controller *interaction.Controller
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	blobs    *storage.BlobStore
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

func NewStore(blobs *storage.BlobStore, logger *zap.Logger, opts Options) *Store {
	return &Store{
		sessions: make(map[string]*session),
		blobs:    blobs,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Blobs exposes the handle store backing item payloads.
func (s *Store) Blobs() *storage.BlobStore {
	return s.blobs
}

func (s *Store) Create(settings models.ProcessingSettings) (*models.SessionView, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &session{
		id:        uuid.New().String(),
		settings:  settings.Clone(),
		createdAt: now,
		updatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.id] = sess
	s.logger.Info("Session created", zap.String("session_id", sess.id))
	return sess.view(), nil
}

// Get returns a deep copy of the session.
func (s *Store) Get(id string) (*models.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.view(), nil
}

// Snapshot returns deep copies of the session's items in queue order.
func (s *Store) Snapshot(id string) ([]*models.QueueItem, error) {
	view, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return view.Items, nil
}

// Delete drops the session and releases every handle it owns. A batch still
// running for it keeps going; its writes become no-ops.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}

	for _, item := range sess.items {
		s.releaseItem(item)
	}
	delete(s.sessions, id)

	s.logger.Info("Session deleted", zap.String("session_id", id), zap.Int("items", len(sess.items)))
	return nil
}

// Sweep deletes sessions idle for longer than maxIdle that are not running a
// batch. It returns the number of sessions removed.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.processing || sess.updatedAt.After(cutoff) {
			continue
		}
		for _, item := range sess.items {
			s.releaseItem(item)
		}
		delete(s.sessions, id)
		removed++
	}

	if removed > 0 {
		s.logger.Info("Idle sessions swept", zap.Int("removed", removed))
	}
	return removed
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) lookup(id string) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (sess *session) find(itemID string) (int, *models.QueueItem) {
	for i, item := range sess.items {
		if item.ID == itemID {
			return i, item
		}
	}
	return -1, nil
}

func (sess *session) view() *models.SessionView {
	items := make([]*models.QueueItem, len(sess.items))
	for i, item := range sess.items {
		items[i] = item.Clone()
	}
	return &models.SessionView{
		ID:         sess.id,
		Items:      items,
		SelectedID: sess.selectedID,
		Settings:   sess.settings.Clone(),
		Processing: sess.processing,
		CreatedAt:  sess.createdAt,
		UpdatedAt:  sess.updatedAt,
	}
}

func (s *Store) touch(sess *session) {
	sess.updatedAt = s.now()
}

// releaseItem frees every handle derived for item.
func (s *Store) releaseItem(item *models.QueueItem) {
	s.blobs.Release(item.SourceHandle)
	s.blobs.Release(item.PreviewHandle)
	s.blobs.Release(item.OutputHandle)
	item.SourceHandle = ""
	item.PreviewHandle = ""
	item.OutputHandle = ""
}
