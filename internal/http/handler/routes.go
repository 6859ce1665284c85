package handler

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/duongtx90/markdown-viewer/internal/service"
)

// createRequest is the POST /api/documents body.
type createRequest struct {
	Content    string `json:"content"`
	CustomID   string `json:"customId"`
	Password   string `json:"password"`
	Expiration string `json:"expiration"`
}

// createResponse is the 201 body.
type createResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers translate service outcomes to status codes; no business logic here.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Post("/documents", CreateDocument(docSvc))
	api.Get("/documents/:id", GetDocument(docSvc))
}

// HealthCheck reports readiness: it fails when the database is unreachable.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "Service unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// CreateDocument handles document submission.
//
// @Summary Create a markdown document
// @Accept json
// @Produce json
// @Param request body createRequest true "document submission"
// @Success 201 {object} createResponse
// @Failure 400 {object} errorResponse "empty content, invalid custom id or oversized content"
// @Failure 409 {object} errorResponse "custom id is in active use"
// @Failure 500 {object} errorResponse
// @Router /api/documents [post]
func CreateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid request body")
		}

		id, err := docSvc.Create(c.UserContext(), service.CreateInput{
			Content:    req.Content,
			CustomID:   req.CustomID,
			Password:   req.Password,
			Expiration: req.Expiration,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmptyContent),
				errors.Is(err, service.ErrInvalidCustomID),
				errors.Is(err, service.ErrContentTooLarge):
				return writeError(c, fiber.StatusBadRequest, err.Error())
			case errors.Is(err, service.ErrIDConflict):
				return writeError(c, fiber.StatusConflict, err.Error())
			default:
				return writeError(c, fiber.StatusInternalServerError, "Internal server error")
			}
		}

		return c.Status(fiber.StatusCreated).JSON(createResponse{
			ID:      id,
			Message: "Document created successfully",
		})
	}
}

// GetDocument handles document retrieval.
//
// @Summary Retrieve a markdown document
// @Produce json
// @Param id path string true "public document id"
// @Param password query string false "password for protected documents"
// @Success 200 {object} service.DocumentContent
// @Failure 401 {object} errorResponse "password required, none given"
// @Failure 403 {object} errorResponse "wrong password"
// @Failure 404 {object} errorResponse "no such document"
// @Failure 410 {object} errorResponse "document expired"
// @Failure 500 {object} errorResponse
// @Router /api/documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		password := c.Query("password")

		doc, err := docSvc.Retrieve(c.UserContext(), id, password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "Document not found")
			case errors.Is(err, service.ErrExpired):
				return writeError(c, fiber.StatusGone, "Document has expired")
			case errors.Is(err, service.ErrPasswordRequired):
				return writePasswordError(c, fiber.StatusUnauthorized, "Password required")
			case errors.Is(err, service.ErrInvalidPassword):
				return writePasswordError(c, fiber.StatusForbidden, "Invalid password")
			default:
				return writeError(c, fiber.StatusInternalServerError, "Internal server error")
			}
		}

		return c.JSON(doc)
	}
}
