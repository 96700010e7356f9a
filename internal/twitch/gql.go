package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultGQLURL   = "https://gql.twitch.tv/gql"
	defaultUsherURL = "https://usher.ttvnw.net"

	// Public client ID used by the Twitch web player for unauthenticated
	// GQL access. Downloads do not require user credentials.
	gqlClientID = "kimne78kx3ncx6brgo4mv6wki5h0ko"
)

// GQLClient downloads media through the unauthenticated GQL endpoint.
type GQLClient struct {
	logger   zerolog.Logger
	gqlURL   string
	usherURL string
	clientID string
	http     *http.Client
}

// GQLOptions configures a GQLClient. The zero value uses production endpoints.
type GQLOptions struct {
	GQLURL     string
	UsherURL   string
	ClientID   string
	HTTPClient *http.Client
}

// NewGQLClient returns a downloader client.
func NewGQLClient(logger zerolog.Logger, opts GQLOptions) *GQLClient {
	gqlURL := opts.GQLURL
	if gqlURL == "" {
		gqlURL = defaultGQLURL
	}
	usherURL := opts.UsherURL
	if usherURL == "" {
		usherURL = defaultUsherURL
	}
	clientID := opts.ClientID
	if clientID == "" {
		clientID = gqlClientID
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}

	return &GQLClient{
		logger:   logger.With().Str("component", "gql").Logger(),
		gqlURL:   gqlURL,
		usherURL: usherURL,
		clientID: clientID,
		http:     httpClient,
	}
}

type accessToken struct {
	Signature string `json:"signature"`
	Value     string `json:"value"`
}

// query posts a GQL request body and decodes the response into out.
func (g *GQLClient) query(ctx context.Context, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.gqlURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Client-Id", g.clientID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse gql response: %w", err)
	}

	return nil
}

// DownloadClip fetches the source rendition of a clip into path.
func (g *GQLClient) DownloadClip(ctx context.Context, slug, path string) error {
	body := map[string]any{
		"query": `query($slug: ID!) {
			clip(slug: $slug) {
				videoQualities { sourceURL quality }
				playbackAccessToken(params: {platform: "web", playerType: "embed", playerBackend: "mediaplayer"}) {
					signature
					value
				}
			}
		}`,
		"variables": map[string]any{"slug": slug},
	}

	var resp struct {
		Data struct {
			Clip *struct {
				VideoQualities []struct {
					SourceURL string `json:"sourceURL"`
					Quality   string `json:"quality"`
				} `json:"videoQualities"`
				PlaybackAccessToken accessToken `json:"playbackAccessToken"`
			} `json:"clip"`
		} `json:"data"`
	}
	if err := g.query(ctx, body, &resp); err != nil {
		return err
	}
	if resp.Data.Clip == nil || len(resp.Data.Clip.VideoQualities) == 0 {
		return fmt.Errorf("no playable renditions for clip %s", slug)
	}

	token := resp.Data.Clip.PlaybackAccessToken
	source := resp.Data.Clip.VideoQualities[0].SourceURL

	mediaURL := fmt.Sprintf("%s?sig=%s&token=%s",
		source, url.QueryEscape(token.Signature), url.QueryEscape(token.Value))

	g.logger.Debug().Str("clip", slug).Str("quality", resp.Data.Clip.VideoQualities[0].Quality).Msg("downloading clip media")

	return g.downloadFile(ctx, mediaURL, path)
}

// downloadFile streams a URL into a local file.
func (g *GQLClient) downloadFile(ctx context.Context, mediaURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return err
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Body: "media download failed"}
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
