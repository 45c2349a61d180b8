package batch

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"

	"github.com/phambaophuc/masscrop/internal/models"
	"github.com/phambaophuc/masscrop/internal/services/storage"
	"github.com/phambaophuc/masscrop/pkg/utils"
)

type entry struct {
	name        string
	contentType string
	data        []byte
}

// Aggregate packages the outputs of completed items. It returns nil when no
// item has an output. A single output is returned as is; several are zipped.
// Inside the archive, items whose output names collide share one entry
// holding the later bytes.
func Aggregate(items []*models.QueueItem, blobs *storage.BlobStore) (*models.Artifact, error) {
	var outputs []entry
	for _, item := range items {
		if item.Status != models.StatusCompleted {
			continue
		}
		blob, ok := blobs.Get(item.OutputHandle)
		if !ok {
			continue
		}
		outputs = append(outputs, entry{
			name:        utils.OutputFilename(models.OutputPrefix, item.Name),
			contentType: blob.ContentType,
			data:        blob.Data,
		})
	}

	switch len(outputs) {
	case 0:
		return nil, nil
	case 1:
		return &models.Artifact{
			Filename:    outputs[0].name,
			ContentType: outputs[0].contentType,
			Data:        outputs[0].data,
			Entries:     1,
		}, nil
	}

	entries := mergeByName(outputs)
	data, err := zipEntries(entries)
	if err != nil {
		return nil, err
	}
	return &models.Artifact{
		Filename:    models.ArchiveFilename,
		ContentType: models.ArchiveMIME,
		Data:        data,
		Archive:     true,
		Entries:     len(entries),
	}, nil
}

// mergeByName keeps the first position of each name and the last bytes.
func mergeByName(outputs []entry) []entry {
	var entries []entry
	index := make(map[string]int)
	for _, e := range outputs {
		if i, seen := index[e.name]; seen {
			entries[i].data = e.data
			entries[i].contentType = e.contentType
			continue
		}
		index[e.name] = len(entries)
		entries = append(entries, e)
	}
	return entries
}

func zipEntries(entries []entry) ([]byte, error) {
	buffer := &bytes.Buffer{}
	zw := zip.NewWriter(buffer)
	modified := time.Now()

	for _, e := range entries {
		// Encoded images are already compressed.
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Store,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buffer.Bytes(), nil
}

// Artifact aggregates the current results of a session.
func (c *Coordinator) Artifact(sessionID string) (*models.Artifact, error) {
	items, err := c.store.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}
	return Aggregate(items, c.store.Blobs())
}
