package mediacms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// APIError is a non-success response from the media library.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediacms returned status %d: %s", e.Status, e.Body)
}

// Client talks to a self-hosted MediaCMS instance. Base URL and credentials
// are fixed at construction; the HTTP session is owned by the client.
type Client struct {
	logger   zerolog.Logger
	baseURL  string
	username string
	password string
	http     *http.Client
}

// NewClient returns a media library client.
func NewClient(logger zerolog.Logger, baseURL, username, password string) *Client {
	return &Client{
		logger:   logger.With().Str("component", "mediacms").Logger(),
		baseURL:  baseURL,
		username: username,
		password: password,
		http:     &http.Client{Timeout: 5 * time.Minute},
	}
}

// MediaItem is one library entry.
type MediaItem struct {
	FriendlyToken string `json:"friendly_token"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	URL           string `json:"url"`
}

// MediaInfo is the detail view of one library entry.
type MediaInfo struct {
	FriendlyToken  string           `json:"friendly_token"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	URL            string           `json:"url"`
	CategoriesInfo []map[string]any `json:"categories_info"`
	TagsInfo       []map[string]any `json:"tags_info"`
}

// SearchResult is a search response page.
type SearchResult struct {
	Count   int         `json:"count"`
	Results []MediaItem `json:"results"`
}

type mediaPage struct {
	Count   int         `json:"count"`
	Next    string      `json:"next"`
	Results []MediaItem `json:"results"`
}

// Search queries the library. Non-success statuses surface as *APIError;
// callers that want "no match" semantics catch and log it.
func (c *Client) Search(ctx context.Context, query string) (SearchResult, error) {
	endpoint := fmt.Sprintf("%s/api/v1/search?q=%s", c.baseURL, url.QueryEscape(query))

	var result SearchResult
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return SearchResult{}, err
	}

	return result, nil
}

// ListMedia follows pagination and returns every media entry in the library.
func (c *Client) ListMedia(ctx context.Context) ([]MediaItem, error) {
	endpoint := c.baseURL + "/api/v1/media"

	var items []MediaItem
	for endpoint != "" {
		var page mediaPage
		if err := c.getJSON(ctx, endpoint, &page); err != nil {
			return items, err
		}
		items = append(items, page.Results...)
		endpoint = page.Next
	}

	return items, nil
}

// GetMediaInfo fetches the detail view for one entry.
func (c *Client) GetMediaInfo(ctx context.Context, token string) (MediaInfo, error) {
	endpoint := fmt.Sprintf("%s/api/v1/media/%s", c.baseURL, url.PathEscape(token))

	var info MediaInfo
	if err := c.getJSON(ctx, endpoint, &info); err != nil {
		return MediaInfo{}, err
	}

	return info, nil
}

// Upload posts a media file with its title and description.
func (c *Client) Upload(ctx context.Context, path, title, description string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("media_file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := writer.WriteField("title", title); err != nil {
		return err
	}
	if err := writer.WriteField("description", description); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/media", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	c.logger.Debug().Str("path", path).Str("title", title).Msg("uploaded media")
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse mediacms response: %w", err)
	}

	return nil
}
