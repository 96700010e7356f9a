package twitch

import (
	"context"
	"fmt"
	"net/url"
)

type videosResponse struct {
	Data       []Video `json:"data"`
	Pagination struct {
		Cursor string `json:"cursor"`
	} `json:"pagination"`
}

// GetVideo looks up a single video (VOD) by ID.
func (c *Client) GetVideo(ctx context.Context, id string) (Video, error) {
	query := url.Values{}
	query.Set("id", id)

	var resp videosResponse
	if err := c.get(ctx, "/videos", query, &resp); err != nil {
		return Video{}, err
	}
	if len(resp.Data) == 0 {
		return Video{}, fmt.Errorf("video %s not found", id)
	}

	return resp.Data[0], nil
}

// GetAllVideos follows pagination until the channel's video list matching the
// filter is exhausted.
func (c *Client) GetAllVideos(ctx context.Context, filter VideoFilter) ([]Video, error) {
	var videos []Video

	for {
		query := url.Values{}
		query.Set("user_id", filter.UserID)
		query.Set("first", "100")
		if filter.Period != "" {
			query.Set("period", filter.Period)
		}
		if filter.Sort != "" {
			query.Set("sort", filter.Sort)
		}
		if filter.Type != "" {
			query.Set("type", filter.Type)
		}
		if filter.After != "" {
			query.Set("after", filter.After)
		}

		var resp videosResponse
		if err := c.get(ctx, "/videos", query, &resp); err != nil {
			return nil, err
		}

		videos = append(videos, resp.Data...)

		if resp.Pagination.Cursor == "" {
			return videos, nil
		}
		filter.After = resp.Pagination.Cursor
	}
}
