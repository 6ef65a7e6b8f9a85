package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/edutrack-service/internal/handler"
	"github.com/maxviazov/edutrack-service/internal/model"
	"github.com/maxviazov/edutrack-service/internal/repository"
	"github.com/maxviazov/edutrack-service/internal/service"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubUserService struct {
	users []model.User
	err   error
	calls int
	last  service.UserListQuery
}

func (s *stubUserService) ListUsers(_ context.Context, q service.UserListQuery) ([]model.User, error) {
	s.calls++
	s.last = q
	return s.users, s.err
}

func newTestRouter(p handler.Pinger, svc service.UserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := handler.NewRouter(zerolog.New(io.Discard), true)
	handler.Register(r, p, svc)
	return r
}

func do(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRoot_Greeting(t *testing.T) {
	svc := &stubUserService{}
	r := newTestRouter(stubPinger{err: errors.New("db down")}, svc)

	for i := 0; i < 3; i++ {
		w := do(r, http.MethodGet, "/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Welcome to EduTrack!"}`, w.Body.String())
	}
	assert.Zero(t, svc.calls, "root must not touch the store")
}

func TestListUsers_OK(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &stubUserService{users: []model.User{
		{ID: 2, Email: "b@example.com", FullName: "B", IsActive: true, CreatedAt: created},
	}}
	r := newTestRouter(stubPinger{}, svc)

	w := do(r, http.MethodGet, "/users/?skip=1&limit=1")
	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.EqualValues(t, 2, got[0]["id"])
	assert.Equal(t, "b@example.com", got[0]["email"])

	require.NotNil(t, svc.last.Skip)
	require.NotNil(t, svc.last.Limit)
	assert.Equal(t, 1, *svc.last.Skip)
	assert.Equal(t, 1, *svc.last.Limit)
}

func TestListUsers_DefaultsLeftToService(t *testing.T) {
	svc := &stubUserService{users: []model.User{}}
	r := newTestRouter(stubPinger{}, svc)

	w := do(r, http.MethodGet, "/users/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Nil(t, svc.last.Skip)
	assert.Nil(t, svc.last.Limit)
}

func TestListUsers_NonInteger(t *testing.T) {
	svc := &stubUserService{}
	r := newTestRouter(stubPinger{}, svc)

	for _, target := range []string{"/users/?skip=abc", "/users/?limit=1.5", "/users/?limit="} {
		w := do(r, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)

		var payload struct {
			Error       string               `json:"error"`
			FieldErrors []service.FieldError `json:"field_errors"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		assert.Equal(t, "invalid_input", payload.Error)
		assert.NotEmpty(t, payload.FieldErrors)
	}
	assert.Zero(t, svc.calls)
}

func TestListUsers_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"invalid", service.NewInvalidInput([]service.FieldError{{Field: "limit", Message: "must be between 1 and 100"}}), 400, "invalid_input"},
		{"timeout", repository.NewQueryError("list users", context.DeadlineExceeded), 504, "timeout"},
		{"query", repository.NewQueryError("list users", errors.New("relation does not exist")), 500, "query_error"},
		{"no factory", repository.ErrNoFactory, 500, "configuration_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(stubPinger{}, &stubUserService{err: tc.err})
			w := do(r, http.MethodGet, "/users/?limit=5")
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), `"error":"`+tc.body+`"`)
			assert.NotContains(t, w.Body.String(), "relation does not exist")
		})
	}
}

func TestListUsers_TrailingSlashRedirect(t *testing.T) {
	r := newTestRouter(stubPinger{}, &stubUserService{})
	w := do(r, http.MethodGet, "/users")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/users/", w.Header().Get("Location"))
}

func TestHealth(t *testing.T) {
	r := newTestRouter(stubPinger{}, &stubUserService{})
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/live").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready").Code)

	down := newTestRouter(stubPinger{err: errors.New("dial tcp: refused")}, &stubUserService{})
	assert.Equal(t, http.StatusOK, do(down, http.MethodGet, "/live").Code)
	w := do(down, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "refused")
}

func TestDocs(t *testing.T) {
	r := newTestRouter(stubPinger{}, &stubUserService{})

	w := do(r, http.MethodGet, "/openapi.yaml")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/users/:")

	w = do(r, http.MethodGet, "/openapi.json")
	require.Equal(t, http.StatusOK, w.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/users/")

	w = do(r, http.MethodGet, "/docs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
}

func TestMiddleware_RequestIDAndSecureHeaders(t *testing.T) {
	r := newTestRouter(stubPinger{}, &stubUserService{})

	w := do(r, http.MethodGet, "/")
	assert.NotEmpty(t, w.Header().Get(handler.RequestIDHeader))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(handler.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(handler.RequestIDHeader))
}

func TestMiddleware_Recovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := handler.NewRouter(zerolog.New(io.Discard), true)
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal_error"}`, w.Body.String())
}
