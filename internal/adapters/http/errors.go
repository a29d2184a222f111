package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// APIError is the JSON body of a rejected request.
type APIError struct {
	Error string `json:"error"`
}

// newError builds a JSON error response.
func newError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIError{Error: message})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, msg)
}

// ErrorHandler is the app-wide fallback for errors returned by handlers.
// Fiber errors keep their status; anything else is logged and answered with a
// bare 500, no JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	if code >= fiber.StatusInternalServerError {
		LoggerFromCtx(c.UserContext()).Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(code).SendString(statusText(code, fe))
}

func statusText(code int, fe *fiber.Error) string {
	if fe != nil && code < fiber.StatusInternalServerError {
		return fe.Message
	}
	return fiber.ErrInternalServerError.Message
}
