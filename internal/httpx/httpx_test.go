package httpx

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipalRoundTrip(t *testing.T) {
	_, ok := PrincipalFrom(context.Background())
	assert.False(t, ok)

	p := Principal{UserUUID: uuid.New(), Username: "dingle", Role: "admin"}
	got, ok := PrincipalFrom(WithPrincipal(context.Background(), p))
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.True(t, got.IsAdmin())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 409, "booster already active")

	assert.Equal(t, 409, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"booster already active"}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Type string `json:"type"`
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"type":"MegaSpeed"}`))
	require.NoError(t, DecodeJSON(req, &body))
	assert.Equal(t, "MegaSpeed", body.Type)

	req = httptest.NewRequest("POST", "/", strings.NewReader(``))
	assert.Error(t, DecodeJSON(req, &body))

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{`))
	assert.Error(t, DecodeJSON(req, &body))
}
