package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/duongtx90/markdown-viewer/internal/service"
	svcMocks "github.com/duongtx90/markdown-viewer/internal/service/mocks"
)

func newTestApp(docSvc service.DocumentService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	api := app.Group("/api")
	api.Post("/documents", CreateDocument(docSvc))
	api.Get("/documents/:id", GetDocument(docSvc))
	return app
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		dbMock.ExpectPing()

		app := fiber.New()
		app.Get("/health", HealthCheck(db))

		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "healthy", decodeBody(t, resp.Body)["status"])
	})

	t.Run("unreachable database", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()

		dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))

		app := fiber.New()
		app.Get("/health", HealthCheck(db))

		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "Service unavailable", decodeBody(t, resp.Body)["error"])
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCreateDocument(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks func(m *svcMocks.MockDocumentService)
		wantStatus int
		checkBody  func(t *testing.T, body map[string]any)
	}{
		{
			name: "created",
			body: `{"content":"# Hi","customId":"my-doc","password":"pw","expiration":"1h"}`,
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Create", mock.Anything, service.CreateInput{
					Content:    "# Hi",
					CustomID:   "my-doc",
					Password:   "pw",
					Expiration: "1h",
				}).Return("my-doc", nil)
			},
			wantStatus: fiber.StatusCreated,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "my-doc", body["id"])
				assert.Equal(t, "Document created successfully", body["message"])
			},
		},
		{
			name:       "malformed JSON body",
			body:       `{"content":`,
			setupMocks: func(m *svcMocks.MockDocumentService) {},
			wantStatus: fiber.StatusBadRequest,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Invalid request body", body["error"])
			},
		},
		{
			name: "empty content",
			body: `{"content":""}`,
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Create", mock.Anything, mock.Anything).Return("", service.ErrEmptyContent)
			},
			wantStatus: fiber.StatusBadRequest,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, service.ErrEmptyContent.Error(), body["error"])
			},
		},
		{
			name: "invalid custom id",
			body: `{"content":"x","customId":"bad id!"}`,
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Create", mock.Anything, mock.Anything).Return("", service.ErrInvalidCustomID)
			},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name: "content too large",
			body: `{"content":"x"}`,
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Create", mock.Anything, mock.Anything).Return("", service.ErrContentTooLarge)
			},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name: "custom id conflict",
			body: `{"content":"x","customId":"taken"}`,
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Create", mock.Anything, mock.Anything).Return("", service.ErrIDConflict)
			},
			wantStatus: fiber.StatusConflict,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, service.ErrIDConflict.Error(), body["error"])
			},
		},
		{
			name: "unexpected failure",
			body: `{"content":"x"}`,
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Create", mock.Anything, mock.Anything).Return("", errors.New("disk full"))
			},
			wantStatus: fiber.StatusInternalServerError,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Internal server error", body["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mSvc := new(svcMocks.MockDocumentService)
			tt.setupMocks(mSvc)

			app := newTestApp(mSvc)

			req := httptest.NewRequest("POST", "/api/documents", bytes.NewReader([]byte(tt.body)))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.checkBody != nil {
				tt.checkBody(t, decodeBody(t, resp.Body))
			}
			mSvc.AssertExpectations(t)
		})
	}
}

func TestGetDocument(t *testing.T) {
	createdAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		path       string
		setupMocks func(m *svcMocks.MockDocumentService)
		wantStatus int
		checkBody  func(t *testing.T, body map[string]any)
	}{
		{
			name: "found",
			path: "/api/documents/abc123",
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Retrieve", mock.Anything, "abc123", "").Return(&service.DocumentContent{
					Content:     "# Hi",
					CreatedAt:   createdAt,
					HasPassword: false,
				}, nil)
			},
			wantStatus: fiber.StatusOK,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "# Hi", body["content"])
				assert.Equal(t, false, body["hasPassword"])
				assert.Nil(t, body["expiresAt"])
				assert.NotEmpty(t, body["createdAt"])
			},
		},
		{
			name: "password forwarded from query",
			path: "/api/documents/locked?password=s3cret",
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Retrieve", mock.Anything, "locked", "s3cret").Return(&service.DocumentContent{
					Content:     "# Secret",
					CreatedAt:   createdAt,
					HasPassword: true,
				}, nil)
			},
			wantStatus: fiber.StatusOK,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["hasPassword"])
			},
		},
		{
			name: "not found",
			path: "/api/documents/missing",
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Retrieve", mock.Anything, "missing", "").Return(nil, service.ErrNotFound)
			},
			wantStatus: fiber.StatusNotFound,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Document not found", body["error"])
				assert.NotContains(t, body, "passwordRequired")
			},
		},
		{
			name: "expired",
			path: "/api/documents/old",
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Retrieve", mock.Anything, "old", "").Return(nil, service.ErrExpired)
			},
			wantStatus: fiber.StatusGone,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Document has expired", body["error"])
			},
		},
		{
			name: "password required",
			path: "/api/documents/locked",
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Retrieve", mock.Anything, "locked", "").Return(nil, service.ErrPasswordRequired)
			},
			wantStatus: fiber.StatusUnauthorized,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Password required", body["error"])
				assert.Equal(t, true, body["passwordRequired"])
			},
		},
		{
			name: "wrong password",
			path: "/api/documents/locked?password=nope",
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Retrieve", mock.Anything, "locked", "nope").Return(nil, service.ErrInvalidPassword)
			},
			wantStatus: fiber.StatusForbidden,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Invalid password", body["error"])
				assert.Equal(t, true, body["passwordRequired"])
			},
		},
		{
			name: "unexpected failure",
			path: "/api/documents/torn",
			setupMocks: func(m *svcMocks.MockDocumentService) {
				m.On("Retrieve", mock.Anything, "torn", "").Return(nil, errors.New("blob missing"))
			},
			wantStatus: fiber.StatusInternalServerError,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Internal server error", body["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mSvc := new(svcMocks.MockDocumentService)
			tt.setupMocks(mSvc)

			app := newTestApp(mSvc)

			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.checkBody != nil {
				tt.checkBody(t, decodeBody(t, resp.Body))
			}
			mSvc.AssertExpectations(t)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	mSvc := new(svcMocks.MockDocumentService)
	app := newTestApp(mSvc)

	t.Run("unknown route", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/nope", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Not found", decodeBody(t, resp.Body)["error"])
	})

	t.Run("disallowed method", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("DELETE", "/api/documents", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "Method not allowed", decodeBody(t, resp.Body)["error"])
	})
}
