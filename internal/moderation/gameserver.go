package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// GameServer is the outbound boundary to the live game server. The portal
// only decides whether a caller may request an action; carrying it out is
// entirely the server bridge's business.
type GameServer interface {
	Ban(ctx context.Context, req BanRequest) error
	Kick(ctx context.Context, req KickRequest) error
	Warn(ctx context.Context, req WarnRequest) error
	Unban(ctx context.Context, req UnbanRequest) error
}

// HTTPGameServer dispatches actions to the game server bridge over HTTP.
type HTTPGameServer struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGameServer constructs a bridge client.
func NewHTTPGameServer(baseURL, apiKey string, client *http.Client) *HTTPGameServer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPGameServer{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Ban implements GameServer.
func (g *HTTPGameServer) Ban(ctx context.Context, req BanRequest) error {
	return g.dispatch(ctx, "/ban", map[string]string{
		"player_id": req.PlayerID,
		"reason":    req.Reason,
		"duration":  string(req.Duration),
	})
}

// Kick implements GameServer.
func (g *HTTPGameServer) Kick(ctx context.Context, req KickRequest) error {
	return g.dispatch(ctx, "/kick", map[string]string{
		"player_id": req.PlayerID,
		"reason":    req.Reason,
	})
}

// Warn implements GameServer.
func (g *HTTPGameServer) Warn(ctx context.Context, req WarnRequest) error {
	return g.dispatch(ctx, "/warn", map[string]string{
		"player_id": req.PlayerID,
		"reason":    req.Reason,
		"severity":  string(req.Severity),
	})
}

// Unban implements GameServer.
func (g *HTTPGameServer) Unban(ctx context.Context, req UnbanRequest) error {
	return g.dispatch(ctx, "/unban", map[string]string{
		"player_id": req.PlayerID,
		"reason":    req.Reason,
	})
}

func (g *HTTPGameServer) dispatch(ctx context.Context, path string, payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("moderation: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("moderation: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", g.apiKey)

	res, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("moderation: dispatch %s: %w", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("moderation: game server status %d for %s", res.StatusCode, path)
	}
	return nil
}

var _ GameServer = (*HTTPGameServer)(nil)
