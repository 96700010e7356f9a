package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keagan/clipvault/internal/twitch"
)

type fakeVideoAPI struct {
	videos     []twitch.Video
	users      map[string]string
	categories map[string]string
	live       bool
}

func (f *fakeVideoAPI) GetVideo(_ context.Context, id string) (twitch.Video, error) {
	for _, video := range f.videos {
		if video.ID == id {
			return video, nil
		}
	}
	return twitch.Video{}, fmt.Errorf("video %s not found", id)
}

func (f *fakeVideoAPI) GetAllVideos(_ context.Context, _ twitch.VideoFilter) ([]twitch.Video, error) {
	return f.videos, nil
}

func (f *fakeVideoAPI) GetUserID(_ context.Context, login string) (string, error) {
	return f.users[login], nil
}

func (f *fakeVideoAPI) GetCategoryID(_ context.Context, name string) (string, error) {
	return f.categories[name], nil
}

func (f *fakeVideoAPI) IsUserLive(_ context.Context, _ string) (bool, error) {
	return f.live, nil
}

type fakeVideoDownloader struct {
	downloads []string
	qualities []string
}

func (f *fakeVideoDownloader) DownloadVideo(_ context.Context, videoID, path, quality string) error {
	f.downloads = append(f.downloads, videoID)
	f.qualities = append(f.qualities, quality)
	return os.WriteFile(path, []byte("ts"), 0644)
}

type fakeConverter struct {
	conversions []string
}

func (f *fakeConverter) ConvertVideo(_ context.Context, input, output string) error {
	f.conversions = append(f.conversions, filepath.Base(output))
	return os.WriteFile(output, []byte("mp4"), 0644)
}

func testVideo(id, createdAt, gameID string) twitch.Video {
	return twitch.Video{
		ID:          id,
		Title:       "broadcast " + id,
		CreatedAt:   createdAt,
		PublishedAt: createdAt,
		Duration:    "1h0m0s",
		Type:        "archive",
		GameID:      gameID,
	}
}

func TestArchiveVODs(t *testing.T) {
	api := &fakeVideoAPI{
		videos: []twitch.Video{
			testVideo("v1", "2023-01-10T12:00:00Z", ""),
			testVideo("v2", "2023-01-12T12:00:00Z", ""),
		},
		users: map[string]string{"streamer": "123"},
	}
	dl := &fakeVideoDownloader{}
	conv := &fakeConverter{}
	dir := t.TempDir()

	archiver := NewVODArchiver(zerolog.Nop(), api, dl, conv)
	downloaded, err := archiver.ArchiveVODs(context.Background(), VODOptions{
		Broadcaster: "streamer",
		Period:      "all",
		Type:        "archive",
		OutDir:      dir,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, downloaded)
	assert.Equal(t, []string{"v1", "v2"}, dl.downloads)
	assert.Equal(t, []string{"720", "720"}, dl.qualities)

	// Colons are stripped from the base name for filesystem safety.
	assert.FileExists(t, filepath.Join(dir, "2023-01-10T120000Z_[[v1]].mp4"))
	assert.FileExists(t, filepath.Join(dir, "2023-01-10T120000Z_[[v1]].txt"))

	info, err := os.ReadFile(filepath.Join(dir, "2023-01-10T120000Z_[[v1]].txt"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "Title: broadcast v1")
	assert.Contains(t, string(info), "2023-01-10 12:00:00")
}

func TestArchiveVODsSkipsGrowingVOD(t *testing.T) {
	recent := time.Now().UTC().Add(-1 * time.Hour).Format(twitch.TimeFormat)
	old := time.Now().UTC().Add(-48 * time.Hour).Format(twitch.TimeFormat)

	api := &fakeVideoAPI{
		videos: []twitch.Video{
			testVideo("fresh", recent, ""),
			testVideo("settled", old, ""),
		},
		users: map[string]string{"streamer": "123"},
		live:  true,
	}
	dl := &fakeVideoDownloader{}

	archiver := NewVODArchiver(zerolog.Nop(), api, dl, &fakeConverter{})
	downloaded, err := archiver.ArchiveVODs(context.Background(), VODOptions{
		Broadcaster: "streamer",
		OutDir:      t.TempDir(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, downloaded)
	assert.Equal(t, []string{"settled"}, dl.downloads, "the in-progress broadcast's vod must be skipped")
}

func TestArchiveVODsCategoryFilter(t *testing.T) {
	api := &fakeVideoAPI{
		videos: []twitch.Video{
			testVideo("match", "2023-01-10T12:00:00Z", "g1"),
			testVideo("other", "2023-01-12T12:00:00Z", "g2"),
		},
		users:      map[string]string{"streamer": "123"},
		categories: map[string]string{"Just Chatting": "g1"},
	}
	dl := &fakeVideoDownloader{}

	archiver := NewVODArchiver(zerolog.Nop(), api, dl, &fakeConverter{})
	downloaded, err := archiver.ArchiveVODs(context.Background(), VODOptions{
		Broadcaster: "streamer",
		Category:    "Just Chatting",
		OutDir:      t.TempDir(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, downloaded)
	assert.Equal(t, []string{"match"}, dl.downloads)
}

func TestArchiveVODsSkipsExistingDownloads(t *testing.T) {
	api := &fakeVideoAPI{
		videos: []twitch.Video{testVideo("v1", "2023-01-10T12:00:00Z", "")},
		users:  map[string]string{"streamer": "123"},
	}
	dl := &fakeVideoDownloader{}
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "2023-01-10T120000Z_[[v1]].mp4"), []byte("done"), 0644))

	archiver := NewVODArchiver(zerolog.Nop(), api, dl, &fakeConverter{})
	downloaded, err := archiver.ArchiveVODs(context.Background(), VODOptions{
		Broadcaster: "streamer",
		OutDir:      dir,
	})
	require.NoError(t, err)

	// The existing file counts as handled without a new download.
	assert.Equal(t, 1, downloaded)
	assert.Empty(t, dl.downloads)
}

func TestArchiveVODsDeleteAfterRemovesTransportStream(t *testing.T) {
	api := &fakeVideoAPI{
		videos: []twitch.Video{testVideo("v1", "2023-01-10T12:00:00Z", "")},
		users:  map[string]string{"streamer": "123"},
	}
	dir := t.TempDir()

	archiver := NewVODArchiver(zerolog.Nop(), api, &fakeVideoDownloader{}, &fakeConverter{})
	_, err := archiver.ArchiveVODs(context.Background(), VODOptions{
		Broadcaster: "streamer",
		OutDir:      dir,
		DeleteAfter: true,
	})
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "2023-01-10T120000Z_[[v1]].ts"))
	assert.FileExists(t, filepath.Join(dir, "2023-01-10T120000Z_[[v1]].mp4"))
}
