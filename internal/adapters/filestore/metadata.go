package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/samirrijal/geophotos/internal/core/domain"
	"github.com/samirrijal/geophotos/internal/pkg/metrics"
)

// DefaultMetadataFile is the metadata file name inside the storage directory.
const DefaultMetadataFile = "photos.json"

// MetadataStore implements ports.PhotoRepository as a single JSON array file.
//
// Every append loads the whole array, adds one record and writes the whole
// array back. mu serializes that sequence across requests so two concurrent
// uploads cannot overwrite each other's record.
type MetadataStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewMetadataStore returns a store for name inside dir. The file is created
// on the first Append.
func NewMetadataStore(dir *Directory, name string) (*MetadataStore, error) {
	if name == "" {
		name = DefaultMetadataFile
	}
	p, err := dir.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("metadata file %q: %w", name, err)
	}
	return &MetadataStore{fs: dir.Fs(), path: p}, nil
}

// Path returns the metadata file location.
func (s *MetadataStore) Path() string { return s.path }

// List returns all records in insertion order.
func (s *MetadataStore) List(_ context.Context) ([]domain.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Append adds photo to the end of the array.
func (s *MetadataStore) Append(_ context.Context, photo domain.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	photos, err := s.load()
	if err != nil {
		metrics.MetadataWrites.WithLabelValues("file", "error").Inc()
		return err
	}
	photos = append(photos, photo)

	if err := s.save(photos); err != nil {
		metrics.MetadataWrites.WithLabelValues("file", "error").Inc()
		return err
	}
	metrics.MetadataWrites.WithLabelValues("file", "ok").Inc()
	return nil
}

func (s *MetadataStore) load() ([]domain.Photo, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Photo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var photos []domain.Photo
	if err := json.Unmarshal(data, &photos); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", filepath.Base(s.path), err)
	}
	if photos == nil {
		photos = []domain.Photo{}
	}
	return photos, nil
}

// save replaces the file through a temp sibling and rename.
func (s *MetadataStore) save(photos []domain.Photo) error {
	data, err := json.Marshal(photos)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace metadata: %w", err)
	}
	return nil
}
