package natsadapter

import (
	"context"
	"sync"

	"github.com/nats-io/nats.go"
)

// Subscriber implements ports.EventSubscriber with plain (non-durable) NATS
// subscriptions; JetStream publishes are delivered to them as well.
type Subscriber struct {
	conn *nats.Conn
}

// NewSubscriber shares an existing connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// SubscribePhotoUploads calls handler with the raw JSON of every upload event
// until the returned cancel function is called or ctx ends.
func (s *Subscriber) SubscribePhotoUploads(ctx context.Context, handler func(data []byte)) (func(), error) {
	sub, err := s.conn.Subscribe(SubjectUploaded+".>", func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = sub.Unsubscribe()
		case <-stop:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			_ = sub.Unsubscribe()
		})
	}, nil
}

// Connected reports the connection state for readiness checks.
func (s *Subscriber) Connected() bool {
	return s.conn.IsConnected()
}
