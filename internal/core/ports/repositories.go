package ports

import (
	"context"
	"io"

	"github.com/samirrijal/geophotos/internal/core/domain"
)

// PhotoRepository is the metadata store: an ordered, append-only list of
// photo records.
type PhotoRepository interface {
	// List returns every record in insertion order. A store that has never
	// been written returns an empty slice.
	List(ctx context.Context) ([]domain.Photo, error)
	// Append adds one record at the end of the list.
	Append(ctx context.Context, photo domain.Photo) error
}

// BlobStore persists uploaded photo bytes by file name.
type BlobStore interface {
	// Save writes r to name, replacing any existing file, and returns the
	// number of bytes written.
	Save(ctx context.Context, name string, r io.Reader) (int64, error)
	// Open returns the stored bytes of name and their size.
	Open(name string) (io.ReadCloser, int64, error)
}
