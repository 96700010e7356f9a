package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultHelixURL = "https://api.twitch.tv/helix"
	defaultAuthURL  = "https://id.twitch.tv/oauth2/token"
)

// APIError is a non-success response from the Helix API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitch api returned status %d: %s", e.Status, e.Body)
}

// Options configures a Client. The zero value uses production endpoints.
type Options struct {
	ClientID     string
	ClientSecret string
	HelixURL     string
	AuthURL      string
	HTTPClient   *http.Client
}

// Client talks to the Twitch Helix API. Configuration is immutable after
// construction; the underlying HTTP session is owned by the client.
type Client struct {
	logger   zerolog.Logger
	helixURL string
	clientID string
	token    string
	http     *http.Client
}

// NewClient authenticates with the app credentials and returns a ready client.
func NewClient(ctx context.Context, logger zerolog.Logger, opts Options) (*Client, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("twitch client id and secret are required")
	}

	helixURL := opts.HelixURL
	if helixURL == "" {
		helixURL = defaultHelixURL
	}
	authURL := opts.AuthURL
	if authURL == "" {
		authURL = defaultAuthURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	c := &Client{
		logger:   logger.With().Str("component", "twitch").Logger(),
		helixURL: helixURL,
		clientID: opts.ClientID,
		http:     httpClient,
	}

	token, err := c.authenticate(ctx, authURL, opts.ClientID, opts.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("twitch authentication failed: %w", err)
	}
	c.token = token

	return c, nil
}

func (c *Client) authenticate(ctx context.Context, authURL, id, secret string) (string, error) {
	form := url.Values{}
	form.Set("client_id", id)
	form.Set("client_secret", secret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authURL+"?"+form.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response contained no access token")
	}

	return payload.AccessToken, nil
}

// get performs an authenticated GET against a Helix endpoint and decodes the
// response into out. Non-2xx statuses surface as *APIError.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.helixURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Client-Id", c.clientID)

	c.logger.Debug().Str("url", endpoint).Msg("helix request")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse helix response: %w", err)
	}

	return nil
}
