package compile

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/keagan/clipvault/internal/timewindow"
	"github.com/keagan/clipvault/internal/twitch"
)

// VideoLister enumerates a channel's VODs.
type VideoLister interface {
	GetAllVideos(ctx context.Context, filter twitch.VideoFilter) ([]twitch.Video, error)
}

// ChatSource replays the chat log of one VOD.
type ChatSource interface {
	ChatMessages(ctx context.Context, videoID string) ([]twitch.ChatMessage, error)
}

// RankEntry is one row of a descending count ranking.
type RankEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ClipStats covers the full in-window clip population, not just the admitted
// selection.
type ClipStats struct {
	Count    int           `json:"count"`
	List     []twitch.Clip `json:"list"`
	Creators []RankEntry   `json:"creators"`
}

type VideoStats struct {
	Count int            `json:"count"`
	List  []twitch.Video `json:"list"`
}

type ChatStats struct {
	Count    int                  `json:"count"`
	List     []twitch.ChatMessage `json:"list"`
	Chatters []RankEntry          `json:"chatters"`
}

// Stats aggregates the statistics-mode artifacts for one period.
type Stats struct {
	Clips  ClipStats
	Videos VideoStats
	Chat   ChatStats
}

// Collector gathers period statistics off the resolved window.
type Collector struct {
	logger zerolog.Logger
	videos VideoLister
	chat   ChatSource
}

// NewCollector creates a statistics collector.
func NewCollector(logger zerolog.Logger, videos VideoLister, chat ChatSource) *Collector {
	return &Collector{
		logger: logger.With().Str("component", "stats").Logger(),
		videos: videos,
		chat:   chat,
	}
}

// Collect lists the channel's VODs, keeps those published inside the buffered
// window, replays their chat and aggregates the rankings. A chat fetch
// failure skips that VOD's messages without aborting the run.
func (c *Collector) Collect(ctx context.Context, userID string, window timewindow.Window, clipLog []twitch.Clip) (*Stats, error) {
	stats := &Stats{}
	stats.Clips.List = clipLog

	c.logger.Info().Msg("getting all videos on channel")
	videos, err := c.videos.GetAllVideos(ctx, twitch.VideoFilter{
		UserID: userID,
		Period: "all",
		Sort:   "time",
		Type:   "archive",
	})
	if err != nil {
		return nil, fmt.Errorf("video listing failed: %w", err)
	}

	for _, video := range videos {
		published, err := video.Published()
		if err != nil {
			c.logger.Warn().Err(err).Str("video", video.ID).Msg("video has invalid publish time, skipping")
			continue
		}
		if !published.After(window.BufferedStart) || !published.Before(window.BufferedEnd) {
			continue
		}

		stats.Videos.List = append(stats.Videos.List, video)

		c.logger.Info().Str("video", video.ID).Str("title", video.Title).Msg("fetching chat for vod")
		messages, err := c.chat.ChatMessages(ctx, video.ID)
		if err != nil {
			c.logger.Warn().Err(err).Str("video", video.ID).Msg("chat fetch failed, skipping vod")
			continue
		}
		stats.Chat.List = append(stats.Chat.List, messages...)
	}

	stats.Clips.Count = len(stats.Clips.List)
	stats.Videos.Count = len(stats.Videos.List)
	stats.Chat.Count = len(stats.Chat.List)

	creatorCounts := make(map[string]int)
	for _, clip := range stats.Clips.List {
		creatorCounts[clip.CreatorName]++
	}
	stats.Clips.Creators = rank(creatorCounts)

	chatterCounts := make(map[string]int)
	for _, message := range stats.Chat.List {
		if message.Commenter == nil {
			continue
		}
		chatterCounts[message.Commenter.DisplayName]++
	}
	stats.Chat.Chatters = rank(chatterCounts)

	return stats, nil
}

// WriteFiles persists the three statistics artifacts atomically.
func (s *Stats) WriteFiles(dir string) error {
	artifacts := map[string]any{
		"clips.json":  s.Clips,
		"videos.json": s.Videos,
		"chat.json":   s.Chat,
	}

	for name, payload := range artifacts {
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		if err := renameio.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	return nil
}

// rank sorts aggregate counts descending, breaking ties by name.
func rank(counts map[string]int) []RankEntry {
	entries := make([]RankEntry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, RankEntry{Name: name, Count: count})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}
