package twitch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

type clipsResponse struct {
	Data       []Clip `json:"data"`
	Pagination struct {
		Cursor string `json:"cursor"`
	} `json:"pagination"`
}

// GetClips returns one page of clips matching the filter along with the
// cursor for the next page. An empty cursor means there are no more pages.
// The server orders results by descending view count.
func (c *Client) GetClips(ctx context.Context, filter ClipFilter) ([]Clip, string, error) {
	query := url.Values{}
	query.Set("broadcaster_id", filter.BroadcasterID)
	if !filter.StartedAt.IsZero() {
		query.Set("started_at", filter.StartedAt.UTC().Format(TimeFormat))
	}
	if !filter.EndedAt.IsZero() {
		query.Set("ended_at", filter.EndedAt.UTC().Format(TimeFormat))
	}
	if filter.First > 0 {
		query.Set("first", strconv.Itoa(filter.First))
	}
	if filter.After != "" {
		query.Set("after", filter.After)
	}

	var resp clipsResponse
	if err := c.get(ctx, "/clips", query, &resp); err != nil {
		return nil, "", err
	}

	return resp.Data, resp.Pagination.Cursor, nil
}

// GetClip looks up a single clip by ID.
func (c *Client) GetClip(ctx context.Context, id string) (Clip, error) {
	query := url.Values{}
	query.Set("id", id)

	var resp clipsResponse
	if err := c.get(ctx, "/clips", query, &resp); err != nil {
		return Clip{}, err
	}
	if len(resp.Data) == 0 {
		return Clip{}, fmt.Errorf("clip %s not found", id)
	}

	return resp.Data[0], nil
}
