//go:build integration
// +build integration

package natsadapter_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	natsadapter "github.com/samirrijal/geophotos/internal/adapters/nats"
	"github.com/samirrijal/geophotos/internal/core/domain"
)

// Requires a JetStream-enabled server, e.g.
// GEOPHOTOS_TEST_NATS_URL=nats://localhost:4222
func TestPublishSubscribe_Integration(t *testing.T) {
	url := os.Getenv("GEOPHOTOS_TEST_NATS_URL")
	if url == "" {
		t.Skip("GEOPHOTOS_TEST_NATS_URL not set")
	}

	nc, err := natsadapter.Connect(url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer nc.Close()

	pub, err := natsadapter.NewPublisher(nc)
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	sub := natsadapter.NewSubscriber(nc)
	if !sub.Connected() {
		t.Fatal("expected connected subscriber")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan []byte, 1)
	stop, err := sub.SubscribePhotoUploads(ctx, func(data []byte) {
		select {
		case received <- data:
		default:
		}
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stop()

	event := &domain.PhotoUploaded{ID: "it-1", Filename: "a.jpg", Latitude: "1", Longitude: "2"}
	if err := pub.PublishPhotoUploaded(ctx, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case data := <-received:
		var got domain.PhotoUploaded
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatal(err)
		}
		if got.ID != "it-1" || got.Filename != "a.jpg" {
			t.Errorf("unexpected event %+v", got)
		}
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}

	// Cancelling twice is harmless.
	stop()
}
