package twitch

import (
	"context"
	"fmt"
)

type chatPage struct {
	Data struct {
		Video *struct {
			Comments struct {
				Edges []struct {
					Cursor string `json:"cursor"`
					Node   struct {
						ID        string     `json:"id"`
						Commenter *Commenter `json:"commenter"`
						OffsetSec float64    `json:"contentOffsetSeconds"`
						Message   struct {
							Fragments []struct {
								Text string `json:"text"`
							} `json:"fragments"`
						} `json:"message"`
					} `json:"node"`
				} `json:"edges"`
				PageInfo struct {
					HasNextPage bool `json:"hasNextPage"`
				} `json:"pageInfo"`
			} `json:"comments"`
		} `json:"video"`
	} `json:"data"`
}

// ChatMessages replays the full chat log of a VOD, following comment cursors
// until the end of the broadcast.
func (g *GQLClient) ChatMessages(ctx context.Context, videoID string) ([]ChatMessage, error) {
	var messages []ChatMessage

	cursor := ""
	for {
		variables := map[string]any{"videoID": videoID}
		if cursor == "" {
			variables["contentOffsetSeconds"] = 0
		} else {
			variables["cursor"] = cursor
		}

		body := map[string]any{
			"operationName": "VideoCommentsByOffsetOrCursor",
			"variables":     variables,
			"extensions": map[string]any{
				"persistedQuery": map[string]any{
					"version":    1,
					"sha256Hash": "b70a3591ff0f4e0313d126c6a1502d79a1c02baebb288227c582044aa76adf6a",
				},
			},
		}

		var page chatPage
		if err := g.query(ctx, body, &page); err != nil {
			return nil, fmt.Errorf("chat fetch for video %s failed: %w", videoID, err)
		}
		if page.Data.Video == nil {
			return messages, nil
		}

		edges := page.Data.Video.Comments.Edges
		for _, edge := range edges {
			text := ""
			for _, frag := range edge.Node.Message.Fragments {
				text += frag.Text
			}
			messages = append(messages, ChatMessage{
				ID:        edge.Node.ID,
				Commenter: edge.Node.Commenter,
				Message:   text,
				OffsetSec: edge.Node.OffsetSec,
			})
		}

		if !page.Data.Video.Comments.PageInfo.HasNextPage || len(edges) == 0 {
			return messages, nil
		}
		cursor = edges[len(edges)-1].Cursor
	}
}
