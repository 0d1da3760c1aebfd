package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/norulespvp/portal/internal/shared"
)

// HTTPVerifier verifies bearer credentials by calling the auth backend's
// user-info endpoint.
type HTTPVerifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPVerifier constructs a verifier for the given user-info endpoint.
func NewHTTPVerifier(endpoint, apiKey string, client *http.Client) *HTTPVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPVerifier{endpoint: endpoint, apiKey: apiKey, client: client}
}

type userInfoResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		ProviderID string   `json:"provider_id"`
		Sub        string   `json:"sub"`
		FullName   string   `json:"full_name"`
		Name       string   `json:"name"`
		AvatarURL  string   `json:"avatar_url"`
		Groups     []string `json:"groups"`
	} `json:"user_metadata"`
}

// Verify implements Verifier.
func (v *HTTPVerifier) Verify(ctx context.Context, bearer string) (*Identity, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return nil, shared.ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if v.apiKey != "" {
		req.Header.Set("apikey", v.apiKey)
	}

	res, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: verify credential: %w", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return nil, shared.ErrUnauthorized
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("identity: auth backend status %d", res.StatusCode)
	}

	var info userInfoResponse
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("identity: decode user info: %w", err)
	}

	userID, err := uuid.Parse(info.ID)
	if err != nil {
		return nil, fmt.Errorf("identity: parse user id: %w", err)
	}

	externalID := info.UserMetadata.ProviderID
	if externalID == "" {
		externalID = info.UserMetadata.Sub
	}
	username := info.UserMetadata.FullName
	if username == "" {
		username = info.UserMetadata.Name
	}

	return &Identity{
		UserID:     userID,
		ExternalID: externalID,
		Username:   username,
		AvatarURL:  info.UserMetadata.AvatarURL,
		Email:      info.Email,
		Groups:     info.UserMetadata.Groups,
	}, nil
}

var _ Verifier = (*HTTPVerifier)(nil)
