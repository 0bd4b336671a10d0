package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "valid", body: `{"name":"ada"}`, want: "ada"},
		{name: "empty body", body: ``, wantErr: true},
		{name: "unknown field", body: `{"name":"ada","extra":1}`, wantErr: true},
		{name: "trailing data", body: `{"name":"ada"}{"name":"bob"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			var got payload
			err := DecodeJSON(rr, req, &got)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadRequest)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusNotFound, "game not found")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"game not found"}`, rr.Body.String())
}

func TestURLParamUUID(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "valid", value: id.String()},
		{name: "invalid", value: "not-a-uuid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("gameID", tt.value)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			got, err := URLParamUUID(req, "gameID")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadRequest)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, id, got)
		})
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    int
		wantErr bool
	}{
		{name: "absent uses default", query: "", want: 20},
		{name: "explicit", query: "?limit=5", want: 5},
		{name: "clamped", query: "?limit=500", want: 100},
		{name: "zero rejected", query: "?limit=0", wantErr: true},
		{name: "garbage rejected", query: "?limit=abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			got, err := QueryInt(req, "limit", 20, 100)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryOffset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?offset=0", nil)
	got, err := QueryOffset(req, "offset")
	assert.NoError(t, err)
	assert.Equal(t, 0, got)

	req = httptest.NewRequest(http.MethodGet, "/?offset=-1", nil)
	_, err = QueryOffset(req, "offset")
	assert.ErrorIs(t, err, ErrBadRequest)
}
