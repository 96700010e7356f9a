package twitch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// DownloadVideo fetches a VOD as a transport stream into path, preferring the
// rendition whose name contains quality (e.g. "720"). Segments are appended
// sequentially; the caller re-encodes the result into a final container.
func (g *GQLClient) DownloadVideo(ctx context.Context, videoID, path, quality string) error {
	token, err := g.videoAccessToken(ctx, videoID)
	if err != nil {
		return err
	}

	master := fmt.Sprintf("%s/vod/%s.m3u8?sig=%s&token=%s&allow_source=true",
		g.usherURL, videoID, url.QueryEscape(token.Signature), url.QueryEscape(token.Value))

	variant, err := g.pickVariant(ctx, master, quality)
	if err != nil {
		return err
	}

	segments, err := g.mediaSegments(ctx, variant)
	if err != nil {
		return err
	}

	g.logger.Info().Str("video", videoID).Int("segments", len(segments)).Msg("downloading vod")

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	base := variant[:strings.LastIndex(variant, "/")+1]
	for _, seg := range segments {
		segURL := seg
		if !strings.HasPrefix(seg, "http") {
			segURL = base + seg
		}
		if err := g.appendSegment(ctx, segURL, out); err != nil {
			os.Remove(path)
			return fmt.Errorf("segment download failed: %w", err)
		}
	}

	return nil
}

func (g *GQLClient) videoAccessToken(ctx context.Context, videoID string) (accessToken, error) {
	body := map[string]any{
		"query": `query($id: ID!) {
			videoPlaybackAccessToken(id: $id, params: {platform: "web", playerType: "site", playerBackend: "mediaplayer"}) {
				signature
				value
			}
		}`,
		"variables": map[string]any{"id": videoID},
	}

	var resp struct {
		Data struct {
			Token *accessToken `json:"videoPlaybackAccessToken"`
		} `json:"data"`
	}
	if err := g.query(ctx, body, &resp); err != nil {
		return accessToken{}, err
	}
	if resp.Data.Token == nil {
		return accessToken{}, fmt.Errorf("no playback access token for video %s", videoID)
	}

	return *resp.Data.Token, nil
}

// pickVariant reads a master playlist and returns the URI of the first
// variant matching the wanted quality, falling back to the first variant.
func (g *GQLClient) pickVariant(ctx context.Context, masterURL, quality string) (string, error) {
	lines, err := g.playlistLines(ctx, masterURL)
	if err != nil {
		return "", err
	}

	var variants []string
	var names []string
	pendingName := ""
	for _, line := range lines {
		if strings.HasPrefix(line, "#EXT-X-MEDIA") {
			if idx := strings.Index(line, `NAME="`); idx >= 0 {
				rest := line[idx+len(`NAME="`):]
				if end := strings.Index(rest, `"`); end >= 0 {
					pendingName = rest[:end]
				}
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		variants = append(variants, line)
		names = append(names, pendingName)
		pendingName = ""
	}

	if len(variants) == 0 {
		return "", fmt.Errorf("master playlist contained no variants")
	}

	for i, name := range names {
		if quality != "" && strings.Contains(name, quality) {
			return variants[i], nil
		}
	}

	return variants[0], nil
}

func (g *GQLClient) mediaSegments(ctx context.Context, playlistURL string) ([]string, error) {
	lines, err := g.playlistLines(ctx, playlistURL)
	if err != nil {
		return nil, err
	}

	var segments []string
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		segments = append(segments, line)
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("media playlist contained no segments")
	}

	return segments, nil
}

func (g *GQLClient) playlistLines(ctx context.Context, playlistURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, playlistURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: "playlist fetch failed"}
	}

	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}

	return lines, scanner.Err()
}

func (g *GQLClient) appendSegment(ctx context.Context, segURL string, out io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, segURL, nil)
	if err != nil {
		return err
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Body: "segment fetch failed"}
	}

	_, err = io.Copy(out, resp.Body)
	return err
}
