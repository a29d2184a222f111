package http

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/geophotos/internal/core/ports"
	"github.com/samirrijal/geophotos/internal/pkg/metrics"
)

// WebSocketHandler returns a handler that relays every photo upload event
// to the connected client as a JSON text frame. Client frames are read only
// to notice the close.
func WebSocketHandler(feed ports.EventSubscriber) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var mu sync.Mutex
		write := func(messageType int, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(messageType, data)
		}

		unsubscribe, err := feed.SubscribePhotoUploads(ctx, func(data []byte) {
			if err := write(websocket.TextMessage, data); err != nil {
				cancel()
			}
		})
		if err != nil {
			slog.Error("ws subscribe failed", "remote", remoteAddr, "error", err)
			return
		}
		defer unsubscribe()

		// Keep-alive ping
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := write(websocket.PingMessage, nil); err != nil {
						cancel()
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}

		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
