package response_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/maxviazov/edutrack-service/internal/config"
	"github.com/maxviazov/edutrack-service/internal/repository"
	"github.com/maxviazov/edutrack-service/internal/service"
	"github.com/maxviazov/edutrack-service/pkg/response"
)

func TestMapError(t *testing.T) {
	invalid := service.NewInvalidInput([]service.FieldError{{Field: "limit", Message: "bad"}})

	cases := []struct {
		name     string
		in       error
		wantCode int
		wantErr  string
	}{
		{"invalid_input", invalid, 400, "invalid_input"},
		{"wrapped invalid_input", fmt.Errorf("handler: %w", invalid), 400, "invalid_input"},
		{"not_found", repository.ErrNotFound, 404, "not_found"},
		{"already_exists", repository.NewQueryError("insert", repository.ErrAlreadyExists), 409, "already_exists"},
		{"conflict", repository.ErrConflict, 409, "conflict"},
		{"timeout", repository.NewQueryError("list users", context.DeadlineExceeded), 504, "timeout"},
		{"configuration", repository.ErrNoFactory, 500, "configuration_error"},
		{"query", repository.NewQueryError("list users", errors.New("syntax error")), 500, "query_error"},
		{"internal", errors.New("boom"), 500, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, payload := response.MapError(tc.in)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantErr, payload.Error)
			if tc.wantErr == "invalid_input" {
				assert.NotEmpty(t, payload.FieldErrors)
			}
		})
	}
}

func TestMapError_ConfigurationMarker(t *testing.T) {
	err := &config.ConfigurationError{Key: "DATABASE_URL", Reason: "is not set"}
	code, payload := response.MapError(err)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "configuration_error", payload.Error)
	assert.NotContains(t, payload.Message, "DATABASE_URL")
}

func TestWriteError_AbortsAndRecords(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	response.WriteError(c, repository.ErrNotFound)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not_found"}`, w.Body.String())
	assert.Len(t, c.Errors, 1)
}
