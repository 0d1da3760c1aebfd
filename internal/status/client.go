// Package status reports the live player count of the game server.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Status is the public view of the game server.
type Status struct {
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	Online     bool   `json:"online"`
	ServerName string `json:"serverName,omitempty"`
}

// DefaultMaxPlayers is shown while the real capacity is unknown.
const DefaultMaxPlayers = 128

// Client fetches server info from the FiveM server list API.
type Client struct {
	baseURL    string
	serverCode string
	httpClient *http.Client
}

// NewClient constructs a Client for the given cfx.re server code.
func NewClient(baseURL, serverCode string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = "https://servers-frontend.fivem.net"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, serverCode: serverCode, httpClient: httpClient}
}

type serverInfoResponse struct {
	Data struct {
		Clients      int    `json:"clients"`
		SvMaxClients int    `json:"sv_maxclients"`
		Hostname     string `json:"hostname"`
	} `json:"Data"`
}

// Fetch queries the upstream list API for the configured server.
func (c *Client) Fetch(ctx context.Context) (Status, error) {
	url := fmt.Sprintf("%s/api/servers/single/%s", c.baseURL, c.serverCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Status{}, fmt.Errorf("status: build request: %w", err)
	}
	req.Header.Set("User-Agent", "norulespvp-portal/1.0")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("status: fetch server info: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("status: upstream status %d", res.StatusCode)
	}

	var info serverInfoResponse
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return Status{}, fmt.Errorf("status: decode server info: %w", err)
	}

	maxPlayers := info.Data.SvMaxClients
	if maxPlayers == 0 {
		maxPlayers = DefaultMaxPlayers
	}
	return Status{
		Players:    info.Data.Clients,
		MaxPlayers: maxPlayers,
		Online:     true,
		ServerName: info.Data.Hostname,
	}, nil
}
