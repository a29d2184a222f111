package http

import (
	"github.com/samirrijal/geophotos/internal/adapters/filestore"
	"github.com/samirrijal/geophotos/internal/adapters/postgres"
	"github.com/samirrijal/geophotos/internal/adapters/s3"
	"github.com/samirrijal/geophotos/internal/adapters/valkey"
	"github.com/samirrijal/geophotos/internal/core/ports"
	"github.com/samirrijal/geophotos/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Photos       *usecases.PhotoService
	Storage      *filestore.Directory
	TemplatesDir string
	DocsDir      string
	RateLimit    int // requests per minute per IP, 0 disables

	// Optional infrastructure; nil when not configured.
	Feed    ports.EventSubscriber
	DB      *postgres.DB
	Cache   *valkey.Cache
	Replica *s3.Replicator
}
