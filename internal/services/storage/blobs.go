package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Blob is an in-memory byte payload addressed by an opaque handle.
type Blob struct {
	Data        []byte
	ContentType string
	CreatedAt   time.Time
}

// BlobStore holds source, preview and output bytes for queue items. Handles
// must be released explicitly; nothing is reclaimed automatically.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob
	size  int64
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]Blob)}
}

// Put stores data and returns a new handle for it.
func (b *BlobStore) Put(data []byte, contentType string) string {
	handle := uuid.New().String()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.blobs[handle] = Blob{Data: data, ContentType: contentType, CreatedAt: time.Now()}
	b.size += int64(len(data))
	return handle
}

func (b *BlobStore) Get(handle string) (Blob, bool) {
	if handle == "" {
		return Blob{}, false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	blob, ok := b.blobs[handle]
	return blob, ok
}

// Release frees handle. Releasing an empty or unknown handle is a no-op.
func (b *BlobStore) Release(handle string) bool {
	if handle == "" {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	blob, ok := b.blobs[handle]
	if !ok {
		return false
	}
	delete(b.blobs, handle)
	b.size -= int64(len(blob.Data))
	return true
}

// Len returns the number of live handles.
func (b *BlobStore) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}

// Size returns the total number of bytes held.
func (b *BlobStore) Size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}
