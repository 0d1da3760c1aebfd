package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGameServerDispatch(t *testing.T) {
	var gotPath string
	var gotKey string
	var gotBody map[string]string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	server := NewHTTPGameServer(upstream.URL, "secret-key", upstream.Client())
	err := server.Ban(context.Background(), BanRequest{PlayerID: "42", Reason: "rdm", Duration: Ban7Days})
	require.NoError(t, err)

	assert.Equal(t, "/ban", gotPath)
	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, map[string]string{"player_id": "42", "reason": "rdm", "duration": "7d"}, gotBody)
}

func TestHTTPGameServerNonSuccessStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	server := NewHTTPGameServer(upstream.URL, "", upstream.Client())
	err := server.Kick(context.Background(), KickRequest{PlayerID: "7", Reason: "afk"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
