package twitch

import (
	"context"
	"net/url"
)

// GetUserID resolves a channel login name to its user ID. An unknown login
// resolves to the empty string without error; callers decide how fatal that
// is.
func (c *Client) GetUserID(ctx context.Context, login string) (string, error) {
	query := url.Values{}
	query.Set("login", login)

	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/users", query, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", nil
	}

	return resp.Data[0].ID, nil
}

// GetCategoryID resolves a game/category name to its ID. Unknown categories
// resolve to the empty string.
func (c *Client) GetCategoryID(ctx context.Context, name string) (string, error) {
	query := url.Values{}
	query.Set("name", name)

	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/games", query, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", nil
	}

	return resp.Data[0].ID, nil
}

// GetCategoryName resolves a game/category ID to its display name.
func (c *Client) GetCategoryName(ctx context.Context, id string) (string, error) {
	query := url.Values{}
	query.Set("id", id)

	var resp struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/games", query, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", nil
	}

	return resp.Data[0].Name, nil
}

// IsUserLive reports whether the user currently has a live stream up.
func (c *Client) IsUserLive(ctx context.Context, userID string) (bool, error) {
	query := url.Values{}
	query.Set("user_id", userID)

	var resp struct {
		Data []struct {
			Type string `json:"type"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/streams", query, &resp); err != nil {
		return false, err
	}

	return len(resp.Data) > 0, nil
}
