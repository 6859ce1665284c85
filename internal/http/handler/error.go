package handler

import (
	"github.com/gofiber/fiber/v2"
)

// errorResponse is the error body for every failure. passwordRequired is set
// only on the 401/403 password gate so clients know to show a prompt.
type errorResponse struct {
	Error            string `json:"error"`
	PasswordRequired bool   `json:"passwordRequired,omitempty"`
}

// writeError writes the standard JSON error body without leaking internal
// details.
func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(errorResponse{Error: message})
}

// writePasswordError writes an error body flagged with passwordRequired.
func writePasswordError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(errorResponse{Error: message, PasswordRequired: true})
}

// ErrorHandler returns a Fiber global error handler that standardizes error
// responses for unrouted paths, disallowed methods and unhandled errors.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusNotFound:
			return writeError(c, status, "Not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "Method not allowed")
		default:
			return writeError(c, status, "Internal server error")
		}
	}
}
