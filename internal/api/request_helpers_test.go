package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/sleepwatch/internal/domain"
)

func requestWithParam(name, value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetPathUUID(t *testing.T) {
	id := uuid.New()

	got, err := getPathUUID(requestWithParam("id", id.String()), "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = getPathUUID(requestWithParam("id", ""), "id")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = getPathUUID(requestWithParam("id", "1234"), "id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestGetQueryInt(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 20, false},
		{"?limit=5", 5, false},
		{"?limit=100", 100, false},
		{"?limit=0", 0, true},
		{"?limit=101", 0, true},
		{"?limit=ten", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/reports"+tt.query, nil)
			got, err := getQueryInt(req, "limit", 20, 1, 100)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
