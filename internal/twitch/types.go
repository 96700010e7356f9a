package twitch

import "time"

// TimeFormat is the timestamp layout used throughout the Helix API.
const TimeFormat = "2006-01-02T15:04:05Z"

// Clip is one platform clip as returned by the Helix clips endpoint.
// Identity is the clip ID; records are never mutated after fetch.
type Clip struct {
	ID            string  `json:"id"`
	URL           string  `json:"url"`
	BroadcasterID string  `json:"broadcaster_id"`
	CreatorName   string  `json:"creator_name"`
	VideoID       string  `json:"video_id"`
	GameID        string  `json:"game_id"`
	Title         string  `json:"title"`
	ViewCount     int     `json:"view_count"`
	CreatedAt     string  `json:"created_at"`
	Duration      float64 `json:"duration"`
	VODOffset     *int    `json:"vod_offset"`
}

// Created parses the clip's creation timestamp.
func (c Clip) Created() (time.Time, error) {
	return time.Parse(TimeFormat, c.CreatedAt)
}

// HasVODReference reports whether the clip can be located inside its parent
// broadcast, i.e. both the video ID and the VOD offset are present.
func (c Clip) HasVODReference() bool {
	return c.VideoID != "" && c.VODOffset != nil
}

// Video is a recorded broadcast (VOD).
type Video struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	CreatedAt   string `json:"created_at"`
	PublishedAt string `json:"published_at"`
	Duration    string `json:"duration"`
	Type        string `json:"type"`
	GameID      string `json:"game_id"`
}

// Created parses the video's creation timestamp.
func (v Video) Created() (time.Time, error) {
	return time.Parse(TimeFormat, v.CreatedAt)
}

// Published parses the video's publish timestamp.
func (v Video) Published() (time.Time, error) {
	return time.Parse(TimeFormat, v.PublishedAt)
}

// ClipFilter enumerates the recognized clip listing parameters.
type ClipFilter struct {
	BroadcasterID string
	StartedAt     time.Time
	EndedAt       time.Time
	First         int
	After         string
}

// VideoFilter enumerates the recognized video listing parameters.
type VideoFilter struct {
	UserID string
	Period string
	Sort   string
	Type   string
	After  string
}

// ChatMessage is one chat line replayed from a VOD.
type ChatMessage struct {
	ID        string     `json:"id"`
	Commenter *Commenter `json:"commenter"`
	Message   string     `json:"message"`
	OffsetSec float64    `json:"contentOffsetSeconds"`
}

// Commenter identifies the author of a chat message.
type Commenter struct {
	DisplayName string `json:"displayName"`
}
