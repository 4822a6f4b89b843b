package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string `json:"name"  validate:"required"`
	Count int    `json:"count" validate:"min=1"`
}

func TestTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	ctx := SetTraceID(context.Background())
	id := GetTraceID(ctx)
	assert.Len(t, id, TraceIDLength*2)
	assert.NotEqual(t, id, GetTraceID(SetTraceID(context.Background())))
}

func TestTraceID_Fallback(t *testing.T) {
	orig := randRead
	randRead = func(b []byte) (int, error) { return 0, errors.New("entropy exhausted") }
	t.Cleanup(func() { randRead = orig })

	first := newTraceID()
	second := newTraceID()
	assert.Len(t, first, TraceIDLength*2)
	assert.NotEqual(t, first, second)
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"a","count":2}`, false},
		{"unknown field", `{"name":"a","extra":1}`, true},
		{"trailing data", `{"name":"a"}{"name":"b"}`, true},
		{"malformed", `{"name":`, true},
		{"oversized", `{"name":"` + strings.Repeat("x", MaxRequestBodyBytes) + `"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v sampleRequest
			err := DecodeJSON(req, &v)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a", v.Name)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(&sampleRequest{Name: "a", Count: 1}))
	assert.Error(t, ValidateRequest(&sampleRequest{Count: 1}))
	assert.Error(t, ValidateRequest(&sampleRequest{Name: "a"}))
}

func TestRespondWithErrorAndLog_HidesDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	req = req.WithContext(WithTraceID(req.Context(), "trace-123"))
	rec := httptest.NewRecorder()

	RespondWithErrorAndLog(rec, req, http.StatusInternalServerError, "Failed to list reports",
		errors.New("sqlite: open /data/reports.db: disk I/O error"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "reports.db")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to list reports", resp.Error)
	assert.Equal(t, "trace-123", resp.TraceID)
}
