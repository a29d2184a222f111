package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geophotos/internal/core/domain"
)

const (
	// StreamPhotos holds upload events for replay by late consumers.
	StreamPhotos = "PHOTOS"
	// SubjectUploaded is the subject prefix for upload events.
	SubjectUploaded = "photos.uploaded"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// Connect dials NATS with the reconnect policy shared by publisher and
// subscriber.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("geophotos"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// NewPublisher enables JetStream on conn and ensures the PHOTOS stream.
func NewPublisher(conn *nats.Conn) (*Publisher, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      StreamPhotos,
		Subjects:  []string{SubjectUploaded + ".>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist: try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishPhotoUploaded publishes to photos.uploaded.<event id>.
func (p *Publisher) PublishPhotoUploaded(ctx context.Context, event *domain.PhotoUploaded) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(EventSubject(event.ID), data, nats.Context(ctx))
	return err
}

// EventSubject is the subject an upload event with id is published on.
func EventSubject(id string) string {
	return SubjectUploaded + "." + id
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
