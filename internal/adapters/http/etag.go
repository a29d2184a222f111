package http

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"
)

// ETagMiddleware tags buffered 200 GET responses with a weak ETag over the
// body and answers 304 when the client already holds it. Streamed bodies and
// responses whose handler set its own ETag pass through untouched.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		resp := c.Response()
		switch {
		case c.Method() != fiber.MethodGet,
			resp.StatusCode() != fiber.StatusOK,
			resp.IsBodyStream(),
			len(resp.Header.Peek(fiber.HeaderETag)) > 0:
			return nil
		}

		body := resp.Body()
		if len(body) == 0 {
			return nil
		}

		sum := sha256.Sum256(body)
		etag := `W/"` + hex.EncodeToString(sum[:8]) + `"`
		c.Set(fiber.HeaderETag, etag)

		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			c.Status(fiber.StatusNotModified)
			resp.ResetBody()
		}
		return nil
	}
}
