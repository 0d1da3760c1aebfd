package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norulespvp/portal/internal/shared"
)

func TestVerifyEmptyBearer(t *testing.T) {
	v := NewHTTPVerifier("http://127.0.0.1:0", "", nil)
	_, err := v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	_, err = v.Verify(context.Background(), "   ")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestVerifyParsesUserInfo(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "5f6e1c52-7a10-4f5a-9d68-2f1f6f4c0a11",
			"email": "maze@example.com",
			"user_metadata": map[string]any{
				"provider_id": "discord-123",
				"full_name":   "Maze",
				"avatar_url":  "https://cdn.example/a.png",
				"groups":      []string{"477", "478"},
			},
		})
	}))
	defer backend.Close()

	v := NewHTTPVerifier(backend.URL, "anon-key", backend.Client())
	ident, err := v.Verify(context.Background(), "tok-123")
	require.NoError(t, err)

	assert.Equal(t, "5f6e1c52-7a10-4f5a-9d68-2f1f6f4c0a11", ident.UserID.String())
	assert.Equal(t, "discord-123", ident.ExternalID)
	assert.Equal(t, "Maze", ident.Username)
	assert.Equal(t, "maze@example.com", ident.Email)
	assert.Equal(t, []string{"477", "478"}, ident.Groups)
}

func TestVerifyFallsBackToSubAndName(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "5f6e1c52-7a10-4f5a-9d68-2f1f6f4c0a11",
			"user_metadata": map[string]any{
				"sub":  "discord-999",
				"name": "maze#0001",
			},
		})
	}))
	defer backend.Close()

	v := NewHTTPVerifier(backend.URL, "", backend.Client())
	ident, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "discord-999", ident.ExternalID)
	assert.Equal(t, "maze#0001", ident.Username)
}

func TestVerifyRejectedCredential(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer backend.Close()

	v := NewHTTPVerifier(backend.URL, "", backend.Client())
	_, err := v.Verify(context.Background(), "expired")
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestVerifyBackendFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer backend.Close()

	v := NewHTTPVerifier(backend.URL, "", backend.Client())
	_, err := v.Verify(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrUnauthorized)
}
