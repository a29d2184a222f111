package http

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// IndexHandler serves the single HTML page.
func IndexHandler(deps *Dependencies) fiber.Handler {
	index := filepath.Join(deps.TemplatesDir, "index.html")
	return func(c *fiber.Ctx) error {
		return c.SendFile(index)
	}
}

// ServeUploadHandler streams a stored file. The storage directory does the
// containment check; anything missing or outside it is a plain 404. The
// ETag comes from size and modification time so the body is never buffered.
func ServeUploadHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("*"))
		if err != nil || name == "" {
			return fiber.ErrNotFound
		}

		info, err := deps.Storage.Stat(name)
		if errors.Is(err, fs.ErrNotExist) {
			return fiber.ErrNotFound
		}
		if err != nil {
			return err
		}

		etag := fileETag(info)
		c.Set(fiber.HeaderETag, etag)
		if c.Get(fiber.HeaderIfNoneMatch) == etag {
			return c.SendStatus(fiber.StatusNotModified)
		}

		rc, size, err := deps.Storage.Open(name)
		if errors.Is(err, fs.ErrNotExist) {
			return fiber.ErrNotFound
		}
		if err != nil {
			return err
		}

		if ext := filepath.Ext(name); ext != "" {
			c.Type(ext)
		} else {
			c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
		}
		return c.SendStream(rc, int(size))
	}
}

func fileETag(info fs.FileInfo) string {
	return fmt.Sprintf(`W/"%x-%x"`, info.Size(), info.ModTime().UnixNano())
}
