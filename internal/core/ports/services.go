package ports

import (
	"context"
	"io"

	"github.com/samirrijal/geophotos/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPhotoUploaded(ctx context.Context, event *domain.PhotoUploaded) error
}

// EventSubscriber delivers published upload events. The returned function
// cancels the subscription.
type EventSubscriber interface {
	SubscribePhotoUploads(ctx context.Context, handler func(data []byte)) (func(), error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// BlobReplicator mirrors a stored photo to secondary storage.
type BlobReplicator interface {
	Replicate(ctx context.Context, name string, r io.Reader, size int64) error
}
