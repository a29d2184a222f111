package postgres

import (
	"context"

	"github.com/samirrijal/geophotos/internal/core/domain"
	"github.com/samirrijal/geophotos/internal/pkg/metrics"
)

// PhotoRepo implements ports.PhotoRepository on the photos table. The serial
// id column carries insertion order.
type PhotoRepo struct {
	db *DB
}

func NewPhotoRepo(db *DB) *PhotoRepo {
	return &PhotoRepo{db: db}
}

func (r *PhotoRepo) Append(ctx context.Context, photo domain.Photo) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO photos (filename, latitude, longitude)
		VALUES ($1, $2, $3)
	`, photo.Filename, photo.Latitude, photo.Longitude)
	if err != nil {
		metrics.MetadataWrites.WithLabelValues("postgres", "error").Inc()
		return err
	}
	metrics.MetadataWrites.WithLabelValues("postgres", "ok").Inc()
	return nil
}

// AppendBatch inserts photos in order inside one transaction.
func (r *PhotoRepo) AppendBatch(ctx context.Context, photos []domain.Photo) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, p := range photos {
		if _, err := tx.Exec(ctx, `
			INSERT INTO photos (filename, latitude, longitude)
			VALUES ($1, $2, $3)
		`, p.Filename, p.Latitude, p.Longitude); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PhotoRepo) List(ctx context.Context) ([]domain.Photo, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT filename, latitude, longitude
		FROM photos ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := make([]domain.Photo, 0)
	for rows.Next() {
		var p domain.Photo
		if err := rows.Scan(&p.Filename, &p.Latitude, &p.Longitude); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}
