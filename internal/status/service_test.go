package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/norulespvp/portal/internal/testing/guard"
)

type fetcherFunc func(ctx context.Context) (Status, error)

func (f fetcherFunc) Fetch(ctx context.Context) (Status, error) { return f(ctx) }

func newTestCache(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCurrentCachesUpstreamResult(t *testing.T) {
	var calls atomic.Int64
	fetcher := fetcherFunc(func(ctx context.Context) (Status, error) {
		calls.Add(1)
		return Status{Players: 31, MaxPlayers: 64, Online: true, ServerName: "NoRules PVP"}, nil
	})
	svc := NewService(fetcher, newTestCache(t), time.Minute, nil)

	first := svc.Current(context.Background())
	second := svc.Current(context.Background())

	assert.Equal(t, 31, first.Players)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load(), "second read must come from cache")
}

func TestCurrentDegradesToOffline(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context) (Status, error) {
		return Status{}, errors.New("upstream down")
	})
	svc := NewService(fetcher, newTestCache(t), time.Minute, nil)

	got := svc.Current(context.Background())
	assert.False(t, got.Online)
	assert.Equal(t, 0, got.Players)
	assert.Equal(t, DefaultMaxPlayers, got.MaxPlayers)
}

func TestRefreshRewritesCache(t *testing.T) {
	players := atomic.Int64{}
	players.Store(10)
	fetcher := fetcherFunc(func(ctx context.Context) (Status, error) {
		return Status{Players: int(players.Load()), MaxPlayers: 64, Online: true}, nil
	})
	svc := NewService(fetcher, newTestCache(t), time.Minute, nil)

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 10, svc.Current(context.Background()).Players)

	players.Store(25)
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, 25, svc.Current(context.Background()).Players)
}

func TestClientFetch(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/servers/single/norulespvp", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Data": map[string]any{
				"clients":       42,
				"sv_maxclients": 64,
				"hostname":      "NoRules PVP | EU",
			},
		})
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "norulespvp", upstream.Client())
	got, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Status{Players: 42, MaxPlayers: 64, Online: true, ServerName: "NoRules PVP | EU"}, got)
}

func TestClientFetchDefaultsMaxPlayers(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"Data": map[string]any{"clients": 3}})
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "norulespvp", upstream.Client())
	got, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxPlayers, got.MaxPlayers)
}
