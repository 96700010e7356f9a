package compile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keagan/clipvault/internal/timewindow"
	"github.com/keagan/clipvault/internal/twitch"
)

type fakeVideoLister struct {
	videos []twitch.Video
}

func (f *fakeVideoLister) GetAllVideos(_ context.Context, _ twitch.VideoFilter) ([]twitch.Video, error) {
	return f.videos, nil
}

type fakeChatSource struct {
	messages map[string][]twitch.ChatMessage
	failIDs  map[string]bool
}

func (f *fakeChatSource) ChatMessages(_ context.Context, videoID string) ([]twitch.ChatMessage, error) {
	if f.failIDs[videoID] {
		return nil, fmt.Errorf("chat for %s unavailable", videoID)
	}
	return f.messages[videoID], nil
}

func chatMessage(name string) twitch.ChatMessage {
	return twitch.ChatMessage{Commenter: &twitch.Commenter{DisplayName: name}}
}

func statsWindow(t *testing.T) timewindow.Window {
	t.Helper()
	window, err := timewindow.ResolveRange("2023-01-01T00:00:01Z", "2023-01-31T23:59:59Z", time.UTC, 8*time.Hour)
	require.NoError(t, err)
	return window
}

func TestCollect(t *testing.T) {
	videos := &fakeVideoLister{videos: []twitch.Video{
		{ID: "in", CreatedAt: "2023-01-10T12:00:00Z", PublishedAt: "2023-01-10T12:00:00Z"},
		{ID: "out", CreatedAt: "2023-03-01T12:00:00Z", PublishedAt: "2023-03-01T12:00:00Z"},
		{ID: "broken", CreatedAt: "2023-01-12T12:00:00Z", PublishedAt: "not-a-time"},
	}}
	chat := &fakeChatSource{messages: map[string][]twitch.ChatMessage{
		"in": {chatMessage("alice"), chatMessage("bob"), chatMessage("alice")},
	}}

	clipLog := []twitch.Clip{
		{ID: "c1", CreatorName: "carol"},
		{ID: "c2", CreatorName: "dave"},
		{ID: "c3", CreatorName: "carol"},
	}

	collector := NewCollector(zerolog.Nop(), videos, chat)
	stats, err := collector.Collect(context.Background(), "123", statsWindow(t), clipLog)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Clips.Count)
	require.Len(t, stats.Videos.List, 1)
	assert.Equal(t, "in", stats.Videos.List[0].ID)
	assert.Equal(t, 3, stats.Chat.Count)

	require.Len(t, stats.Clips.Creators, 2)
	assert.Equal(t, RankEntry{Name: "carol", Count: 2}, stats.Clips.Creators[0])
	assert.Equal(t, RankEntry{Name: "dave", Count: 1}, stats.Clips.Creators[1])

	require.Len(t, stats.Chat.Chatters, 2)
	assert.Equal(t, RankEntry{Name: "alice", Count: 2}, stats.Chat.Chatters[0])
}

func TestCollectSurvivesChatFailure(t *testing.T) {
	videos := &fakeVideoLister{videos: []twitch.Video{
		{ID: "v1", CreatedAt: "2023-01-10T12:00:00Z", PublishedAt: "2023-01-10T12:00:00Z"},
		{ID: "v2", CreatedAt: "2023-01-15T12:00:00Z", PublishedAt: "2023-01-15T12:00:00Z"},
	}}
	chat := &fakeChatSource{
		messages: map[string][]twitch.ChatMessage{"v2": {chatMessage("erin")}},
		failIDs:  map[string]bool{"v1": true},
	}

	collector := NewCollector(zerolog.Nop(), videos, chat)
	stats, err := collector.Collect(context.Background(), "123", statsWindow(t), nil)
	require.NoError(t, err)

	// The failed VOD stays in the video list; only its chat is missing.
	assert.Equal(t, 2, stats.Videos.Count)
	assert.Equal(t, 1, stats.Chat.Count)
}

func TestCollectSkipsAnonymousChatters(t *testing.T) {
	videos := &fakeVideoLister{videos: []twitch.Video{
		{ID: "v1", CreatedAt: "2023-01-10T12:00:00Z", PublishedAt: "2023-01-10T12:00:00Z"},
	}}
	chat := &fakeChatSource{messages: map[string][]twitch.ChatMessage{
		"v1": {chatMessage("frank"), {Commenter: nil}},
	}}

	collector := NewCollector(zerolog.Nop(), videos, chat)
	stats, err := collector.Collect(context.Background(), "123", statsWindow(t), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Chat.Count)
	require.Len(t, stats.Chat.Chatters, 1)
	assert.Equal(t, "frank", stats.Chat.Chatters[0].Name)
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	stats := &Stats{
		Clips: ClipStats{Count: 1, List: []twitch.Clip{{ID: "c1", Title: "hello"}}},
	}

	require.NoError(t, stats.WriteFiles(dir))

	for _, name := range []string{"clips.json", "videos.json", "chat.json"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		require.NoError(t, err, name)
		assert.True(t, json.Valid(data), "%s must hold valid JSON", name)
	}

	var clips ClipStats
	data, err := os.ReadFile(filepath.Join(dir, "clips.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &clips))
	assert.Equal(t, 1, clips.Count)
	require.Len(t, clips.List, 1)
	assert.Equal(t, "c1", clips.List[0].ID)
}

func TestRankOrdering(t *testing.T) {
	entries := rank(map[string]int{"c": 1, "a": 3, "b": 3, "d": 2})
	assert.Equal(t, []RankEntry{
		{Name: "a", Count: 3},
		{Name: "b", Count: 3},
		{Name: "d", Count: 2},
		{Name: "c", Count: 1},
	}, entries)
}
