package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/geophotos/internal/core/domain"
	"github.com/samirrijal/geophotos/internal/core/ports"
	"github.com/samirrijal/geophotos/internal/pkg/geospatial"
	"github.com/samirrijal/geophotos/internal/pkg/metrics"
)

// ListCacheKey is the cache entry holding the serialized photo list.
const ListCacheKey = "photos:list"

const defaultListTTL = 60

// publishTimeout bounds a single event publish.
const publishTimeout = 10 * time.Second

var (
	// ErrNoFile means the request carried no photo part at all.
	ErrNoFile = errors.New("no file uploaded")
	// ErrNoSelectedFile means a photo part was sent without a file name.
	ErrNoSelectedFile = errors.New("no selected file")
	// ErrMissingLocation means latitude or longitude is absent or empty.
	ErrMissingLocation = errors.New("missing location data")
)

// UploadInput is a single photo upload. Content is nil when the request had
// no file part.
type UploadInput struct {
	Filename  string
	Latitude  string
	Longitude string
	Content   io.Reader
}

// Validate applies the presence checks in the order clients observe them.
func (in UploadInput) Validate() error {
	if in.Content == nil {
		return ErrNoFile
	}
	if in.Filename == "" {
		return ErrNoSelectedFile
	}
	if in.Latitude == "" || in.Longitude == "" {
		return ErrMissingLocation
	}
	return nil
}

// PhotoService handles photo upload and listing.
type PhotoService struct {
	photos     ports.PhotoRepository
	blobs      ports.BlobStore
	cache      ports.CacheService
	publisher  ports.EventPublisher
	replicator ports.BlobReplicator

	cacheTTL int
	wg       sync.WaitGroup

	// cacheMu orders list invalidations against list fills. cacheGen is
	// bumped on every invalidation; a fill only lands if the generation it
	// read before loading the store is still current.
	cacheMu  sync.Mutex
	cacheGen uint64
}

// NewPhotoService creates a new PhotoService. cache, publisher and replicator
// may be nil.
func NewPhotoService(
	photos ports.PhotoRepository,
	blobs ports.BlobStore,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	replicator ports.BlobReplicator,
) *PhotoService {
	return &PhotoService{
		photos:     photos,
		blobs:      blobs,
		cache:      cache,
		publisher:  publisher,
		replicator: replicator,
		cacheTTL:   defaultListTTL,
	}
}

// SetCacheTTL overrides how long the cached photo list lives.
func (s *PhotoService) SetCacheTTL(seconds int) {
	if seconds > 0 {
		s.cacheTTL = seconds
	}
}

// Upload stores the photo bytes, then appends its record to the metadata
// store. Nothing is written when validation fails.
func (s *PhotoService) Upload(ctx context.Context, in UploadInput) (*domain.Photo, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	size, err := s.blobs.Save(ctx, in.Filename, in.Content)
	if err != nil {
		return nil, fmt.Errorf("save photo %q: %w", in.Filename, err)
	}

	photo := domain.Photo{
		Filename:  in.Filename,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
	}
	if err := s.photos.Append(ctx, photo); err != nil {
		return nil, fmt.Errorf("append metadata: %w", err)
	}

	metrics.PhotosUploaded.Inc()
	metrics.UploadBytes.Observe(float64(size))

	s.invalidateList(ctx)

	s.publish(ctx, photo, size)
	s.replicate(ctx, photo.Filename)

	return &photo, nil
}

func (s *PhotoService) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cacheGen++
	if err := s.cache.Delete(ctx, ListCacheKey); err != nil {
		slog.WarnContext(ctx, "invalidate photo list cache", "error", err)
	}
}

func (s *PhotoService) listGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cacheGen
}

// fillList caches photos unless an upload invalidated the list after gen
// was read.
func (s *PhotoService) fillList(ctx context.Context, gen uint64, photos []domain.Photo) {
	data, err := json.Marshal(photos)
	if err != nil {
		return
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if gen != s.cacheGen {
		return
	}
	_ = s.cache.Set(ctx, ListCacheKey, data, s.cacheTTL)
}

// publish sends the upload event in the background; the upload response
// does not wait for the broker.
func (s *PhotoService) publish(ctx context.Context, photo domain.Photo, size int64) {
	if s.publisher == nil {
		return
	}
	event := &domain.PhotoUploaded{
		ID:         uuid.NewString(),
		Filename:   photo.Filename,
		Latitude:   photo.Latitude,
		Longitude:  photo.Longitude,
		SizeBytes:  size,
		UploadedAt: time.Now().UTC(),
	}

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pctx, cancel := context.WithTimeout(bg, publishTimeout)
		defer cancel()

		if err := s.publisher.PublishPhotoUploaded(pctx, event); err != nil {
			metrics.EventsPublished.WithLabelValues("error").Inc()
			slog.WarnContext(pctx, "publish photo uploaded", "filename", event.Filename, "error", err)
			return
		}
		metrics.EventsPublished.WithLabelValues("ok").Inc()
	}()
}

// replicate mirrors the stored file in the background; the upload response
// does not wait for it.
func (s *PhotoService) replicate(ctx context.Context, name string) {
	if s.replicator == nil {
		return
	}

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		rctx, cancel := context.WithTimeout(bg, 2*time.Minute)
		defer cancel()

		if err := s.replicateOnce(rctx, name); err != nil {
			metrics.Replications.WithLabelValues("error").Inc()
			slog.Warn("replicate photo", "filename", name, "error", err)
			return
		}
		metrics.Replications.WithLabelValues("ok").Inc()
	}()
}

func (s *PhotoService) replicateOnce(ctx context.Context, name string) error {
	rc, size, err := s.blobs.Open(name)
	if err != nil {
		return fmt.Errorf("open stored photo: %w", err)
	}
	defer rc.Close()
	return s.replicator.Replicate(ctx, name, rc, size)
}

// Wait blocks until background publishes and replications have finished.
func (s *PhotoService) Wait() {
	s.wg.Wait()
}

// List returns every photo record in upload order.
func (s *PhotoService) List(ctx context.Context) ([]domain.Photo, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, ListCacheKey); err == nil {
			var photos []domain.Photo
			if err := json.Unmarshal(data, &photos); err == nil {
				metrics.CacheHits.WithLabelValues("photos_list").Inc()
				return photos, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("photos_list").Inc()
	}

	var gen uint64
	if s.cache != nil {
		gen = s.listGeneration()
	}

	photos, err := s.photos.List(ctx)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []domain.Photo{}
	}

	if s.cache != nil {
		s.fillList(ctx, gen, photos)
	}

	return photos, nil
}

// Nearby returns photos within radiusMeters of (lat, lon), closest first.
// Records whose coordinates are not decimal numbers are skipped.
func (s *PhotoService) Nearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.NearbyPhoto, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	photos, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(lat, lon, radiusMeters)

	nearby := make([]domain.NearbyPhoto, 0)
	for _, p := range photos {
		pt, ok := p.Point()
		if !ok || !geospatial.InBox(pt.Lat, pt.Lon, minLat, minLon, maxLat, maxLon) {
			continue
		}
		d := geospatial.Haversine(lat, lon, pt.Lat, pt.Lon)
		if d > radiusMeters {
			continue
		}
		nearby = append(nearby, domain.NearbyPhoto{Photo: p, Distance: d})
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].Distance < nearby[j].Distance
	})
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}
