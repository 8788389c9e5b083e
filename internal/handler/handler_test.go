package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marketplace/internal/middleware"
	"marketplace/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve routes a single request through a chi router so URL params resolve.
func serve(method, pattern, target string, h http.HandlerFunc, body io.Reader, identity *model.Identity) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), identity, "token-123"))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp
}

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{name: "Validation", err: model.NewValidationError("bad"), expectedCode: http.StatusBadRequest, expectedErr: model.ErrCodeValidation},
		{name: "Empty cart", err: model.ErrEmptyCart, expectedCode: http.StatusBadRequest, expectedErr: model.ErrCodeEmptyCart},
		{name: "Insufficient stock", err: model.NewInsufficientStock("Mug", 1), expectedCode: http.StatusBadRequest, expectedErr: model.ErrCodeInsufficientStock},
		{name: "Unauthenticated", err: model.ErrUnauthenticated, expectedCode: http.StatusUnauthorized, expectedErr: model.ErrCodeUnauthenticated},
		{name: "Forbidden", err: model.ErrForbidden, expectedCode: http.StatusForbidden, expectedErr: model.ErrCodeForbidden},
		{name: "Order not found", err: model.ErrOrderNotFound, expectedCode: http.StatusNotFound, expectedErr: model.ErrCodeOrderNotFound},
		{name: "Email taken", err: model.ErrEmailTaken, expectedCode: http.StatusConflict, expectedErr: model.ErrCodeEmailTaken},
		{name: "Unsupported media", err: model.ErrUnsupportedMedia, expectedCode: http.StatusUnsupportedMediaType, expectedErr: model.ErrCodeUnsupportedMediaType},
		{name: "Wrapped persistence", err: fmt.Errorf("%w: %w", model.ErrPersistence, errors.New("conn reset")), expectedCode: http.StatusInternalServerError, expectedErr: model.ErrCodePersistenceFailure},
		{name: "Unknown error", err: errors.New("pq: something leaked"), expectedCode: http.StatusInternalServerError, expectedErr: model.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			w := httptest.NewRecorder()

			writeError(w, req, tt.err, zerolog.Nop())

			assert.Equal(t, tt.expectedCode, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.expectedErr, resp.Error)
			assert.NotContains(t, resp.Message, "leaked")
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		expectErr bool
	}{
		{name: "Valid", body: `{"email":"a@b.co","password":"x"}`},
		{name: "Empty body", body: ``, expectErr: true},
		{name: "Malformed", body: `{"email":`, expectErr: true},
		{name: "Unknown field", body: `{"email":"a@b.co","admin":true}`, expectErr: true},
		{name: "Trailing object", body: `{"email":"a"}{"email":"b"}`, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(tt.body))
			var dst model.LoginRequest

			err := decodeJSON(httptest.NewRecorder(), req, &dst)

			if !tt.expectErr {
				require.NoError(t, err)
				return
			}
			de, ok := model.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, model.ErrCodeInvalidJSON, de.Code)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	t.Run("Encodes body", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeJSON(w, http.StatusCreated, map[string]int{"id": 3})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"id":3}`, w.Body.String())
	})

	t.Run("Unencodable value keeps status and writes no body", func(t *testing.T) {
		w := httptest.NewRecorder()
		writeJSON(w, http.StatusOK, map[string]interface{}{"ch": make(chan int)})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})
}
