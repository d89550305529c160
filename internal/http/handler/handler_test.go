package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"settingsapi/internal/http/middleware"
	"settingsapi/internal/model"
	"settingsapi/internal/security"
	"settingsapi/internal/service"
	serviceMocks "settingsapi/internal/service/mocks"
)

const (
	testSecret = "handler-test-secret"
	userA      = "65f1a2b3c4d5e6f7a8b9c0d1"
)

type testApp struct {
	app      *fiber.App
	settings *serviceMocks.MockSettingsService
	docs     *serviceMocks.MockDocumentService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ta := &testApp{
		settings: new(serviceMocks.MockSettingsService),
		docs:     new(serviceMocks.MockDocumentService),
	}
	ta.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	ta.app.Use(middleware.RequestID())
	RegisterRoutes(ta.app, testSecret, Services{Settings: ta.settings, Documents: ta.docs})
	t.Cleanup(func() {
		ta.settings.AssertExpectations(t)
		ta.docs.AssertExpectations(t)
	})
	return ta
}

func (ta *testApp) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	token, err := security.GenerateToken(testSecret, userA, time.Hour)
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func multipartBody(t *testing.T, field string, files map[string][]byte, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("healthy", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(Check{Name: "settings_store", Ping: ok}, Check{Name: "object_storage", Ping: ok}))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Status       string            `json:"status"`
			Dependencies map[string]string `json:"dependencies"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body.Status)
		assert.Equal(t, map[string]string{"settings_store": "up", "object_storage": "up"}, body.Dependencies)
	})

	t.Run("unhealthy", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(Check{Name: "settings_store", Ping: ok}, Check{Name: "object_storage", Ping: down}))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutes_RequireBearerToken(t *testing.T) {
	ta := newTestApp(t)

	resp, err := ta.app.Test(httptest.NewRequest(http.MethodGet, "/settings/"+userA, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeError(t, resp)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
	assert.NotEmpty(t, body.RequestID)
}

func TestGetSettings_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid id", service.ErrInvalidID, http.StatusBadRequest, "INVALID_ID"},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"not found", service.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"unknown field", service.ErrUnknownField, http.StatusBadRequest, "UNKNOWN_FIELD"},
		{"internal", errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t)
			ta.settings.On("Get", mock.Anything, userA).Return(nil, tt.err).Once()

			resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/settings/"+userA, nil))
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeError(t, resp)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			if tt.wantCode == "INTERNAL_ERROR" {
				assert.NotContains(t, body.Error.Message, "db down")
			}
		})
	}
}

func TestGetSettings_Success(t *testing.T) {
	ta := newTestApp(t)
	s := model.DefaultSettings(userA)
	ta.settings.On("Get", mock.Anything, userA).Return(s, nil).Once()

	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/settings/"+userA, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Settings
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, userA, got.UserID)
	assert.Equal(t, s.FontSize, got.FontSize)
}

func TestReplaceSettings(t *testing.T) {
	t.Run("rejects non-object body", func(t *testing.T) {
		ta := newTestApp(t)
		req := httptest.NewRequest(http.MethodPut, "/settings/"+userA, strings.NewReader(`[1,2]`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp := ta.do(t, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "BAD_REQUEST", decodeError(t, resp).Error.Code)
	})

	t.Run("validation errors carry fields", func(t *testing.T) {
		ta := newTestApp(t)
		verr := &service.ValidationError{Fields: model.FieldErrors{"fontSize": "must be one of small medium large"}}
		ta.settings.On("Replace", mock.Anything, userA, mock.Anything).Return(nil, verr).Once()

		req := httptest.NewRequest(http.MethodPut, "/settings/"+userA, strings.NewReader(`{"fontSize":"huge"}`))
		resp := ta.do(t, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeError(t, resp)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
		assert.Contains(t, body.Error.Fields, "fontSize")
	})

	t.Run("passes the raw patch through", func(t *testing.T) {
		ta := newTestApp(t)
		out := model.DefaultSettings(userA)
		out.FontSize = "large"
		ta.settings.On("Replace", mock.Anything, userA, mock.MatchedBy(func(p map[string]json.RawMessage) bool {
			return string(p["fontSize"]) == `"large"` && len(p) == 1
		})).Return(out, nil).Once()

		req := httptest.NewRequest(http.MethodPut, "/settings/"+userA, strings.NewReader(`{"fontSize":"large"}`))
		resp := ta.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestResetSettings(t *testing.T) {
	ta := newTestApp(t)
	ta.settings.On("Reset", mock.Anything, userA).Return(model.DefaultSettings(userA), nil).Once()

	resp := ta.do(t, httptest.NewRequest(http.MethodDelete, "/settings/"+userA, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetEffectiveSettings(t *testing.T) {
	t.Run("bad at", func(t *testing.T) {
		ta := newTestApp(t)
		resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/settings/"+userA+"/effective?at=yesterday", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("uses at", func(t *testing.T) {
		ta := newTestApp(t)
		at := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
		ta.settings.On("Effective", mock.Anything, userA, mock.MatchedBy(func(now time.Time) bool {
			return now.Equal(at)
		})).Return(&service.Effective{Timezone: "UTC", QuietHoursActive: true}, nil).Once()

		resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/settings/"+userA+"/effective?at=2024-03-09T23:30:00Z", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got service.Effective
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.True(t, got.QuietHoursActive)
	})
}

func TestSettingsField(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		ta := newTestApp(t)
		ta.settings.On("GetField", mock.Anything, userA, "fontSize").Return(map[string]any{"fontSize": "medium"}, nil).Once()

		resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/settings/"+userA+"/field/fontSize", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "medium", got["fontSize"])
	})

	t.Run("set requires value", func(t *testing.T) {
		ta := newTestApp(t)
		req := httptest.NewRequest(http.MethodPatch, "/settings/"+userA+"/field/fontSize", strings.NewReader(`{}`))
		resp := ta.do(t, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("set", func(t *testing.T) {
		ta := newTestApp(t)
		ta.settings.On("SetField", mock.Anything, userA, "zoomLevel", json.RawMessage(`110`)).
			Return(map[string]any{"zoomLevel": 110}, nil).Once()

		req := httptest.NewRequest(http.MethodPatch, "/settings/"+userA+"/field/zoomLevel", strings.NewReader(`{"value":110}`))
		resp := ta.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestUploadDocuments(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		ta := newTestApp(t)
		body, contentType := multipartBody(t, documentsField,
			map[string][]byte{"a.txt": []byte("hello"), "b.txt": []byte("world")},
			map[string]string{"category": "legal", "description": "contracts"})

		ta.docs.On("Upload", mock.Anything, userA,
			mock.MatchedBy(func(files []service.Upload) bool { return len(files) == 2 }),
			service.UploadMeta{Description: "contracts", Category: "legal"},
		).Return([]model.Document{{ID: "d1", OriginalName: "a.txt"}, {ID: "d2", OriginalName: "b.txt"}}, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/settings/"+userA+"/documents", body)
		req.Header.Set(fiber.HeaderContentType, contentType)
		resp := ta.do(t, req)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var got struct {
			Documents []model.Document `json:"documents"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Len(t, got.Documents, 2)
	})

	t.Run("not multipart", func(t *testing.T) {
		ta := newTestApp(t)
		req := httptest.NewRequest(http.MethodPost, "/settings/"+userA+"/documents", strings.NewReader(`{}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp := ta.do(t, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "UPLOAD_ERROR", decodeError(t, resp).Error.Code)
	})

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "validation stage shows reason",
			err:         &service.UploadError{Stage: service.StageValidation, Reason: "too many files: at most 5 per upload"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "too many files: at most 5 per upload",
		},
		{
			name:        "storage stage hides cause",
			err:         &service.UploadError{Stage: service.StageStorage, Reason: "store a.txt", Err: errors.New("bucket gone")},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "upload failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t)
			body, contentType := multipartBody(t, documentsField, map[string][]byte{"a.txt": []byte("hello")}, nil)
			ta.docs.On("Upload", mock.Anything, userA, mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			req := httptest.NewRequest(http.MethodPost, "/settings/"+userA+"/documents", body)
			req.Header.Set(fiber.HeaderContentType, contentType)
			resp := ta.do(t, req)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			got := decodeError(t, resp)
			assert.Equal(t, "UPLOAD_ERROR", got.Error.Code)
			assert.Equal(t, tt.wantMessage, got.Error.Message)
		})
	}
}

func TestListDocuments(t *testing.T) {
	ta := newTestApp(t)
	ta.docs.On("List", mock.Anything, userA).Return(&service.DocumentListResult{
		Items: []model.Document{{ID: "d1", OriginalName: "a.pdf"}},
		Total: 1,
	}, nil).Once()

	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/settings/"+userA+"/documents", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got service.DocumentListResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1, got.Total)
	assert.Equal(t, "d1", got.Items[0].ID)
}

func TestDownloadDocument(t *testing.T) {
	t.Run("streams with stored type", func(t *testing.T) {
		ta := newTestApp(t)
		ta.docs.On("Download", mock.Anything, userA, "d1").Return(&service.Download{
			Body:     io.NopCloser(strings.NewReader("%PDF-1.4")),
			Filename: "contract.pdf",
			MimeType: "application/pdf",
			Size:     8,
		}, nil).Once()

		resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/settings/"+userA+"/documents/d1/download", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "contract.pdf")

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(data))
	})

	t.Run("missing", func(t *testing.T) {
		ta := newTestApp(t)
		ta.docs.On("Download", mock.Anything, userA, "nope").Return(nil, service.ErrNotFound).Once()

		resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/settings/"+userA+"/documents/nope/download", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestGetDocumentURL(t *testing.T) {
	ta := newTestApp(t)
	ta.docs.On("PresignDownload", mock.Anything, userA, "d1").Return("https://objects.example/signed", nil).Once()

	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/settings/"+userA+"/documents/d1/url", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "https://objects.example/signed", got["url"])
}

func TestDeleteDocument(t *testing.T) {
	ta := newTestApp(t)
	ta.docs.On("Delete", mock.Anything, userA, "d1").Return(nil).Once()

	resp := ta.do(t, httptest.NewRequest(http.MethodDelete, "/settings/"+userA+"/documents/d1", nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestProfilePicture(t *testing.T) {
	t.Run("file required", func(t *testing.T) {
		ta := newTestApp(t)
		body, contentType := multipartBody(t, "other", map[string][]byte{"me.png": []byte("x")}, nil)
		req := httptest.NewRequest(http.MethodPost, "/settings/"+userA+"/profile-picture", body)
		req.Header.Set(fiber.HeaderContentType, contentType)

		resp := ta.do(t, req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "UPLOAD_ERROR", decodeError(t, resp).Error.Code)
	})

	t.Run("upload", func(t *testing.T) {
		ta := newTestApp(t)
		out := model.DefaultSettings(userA)
		out.ProfilePicture = "profile-pictures/" + userA + "/p1.png"
		ta.docs.On("UploadProfilePicture", mock.Anything, userA,
			mock.MatchedBy(func(f service.Upload) bool { return f.Filename == "me.png" }),
		).Return(out, nil).Once()

		body, contentType := multipartBody(t, profilePictureField, map[string][]byte{"me.png": []byte("x")}, nil)
		req := httptest.NewRequest(http.MethodPost, "/settings/"+userA+"/profile-picture", body)
		req.Header.Set(fiber.HeaderContentType, contentType)

		resp := ta.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("download missing", func(t *testing.T) {
		ta := newTestApp(t)
		ta.docs.On("DownloadProfilePicture", mock.Anything, userA).Return(nil, service.ErrNotFound).Once()

		resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/settings/"+userA+"/profile-picture", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/big", func(c *fiber.Ctx) error { return fiber.ErrRequestEntityTooLarge })

	tests := []struct {
		path       string
		wantStatus int
		wantCode   string
	}{
		{"/boom", http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"/big", http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{"/missing", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCode, decodeError(t, resp).Error.Code)
		})
	}
}
