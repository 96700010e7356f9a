package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/keagan/clipvault/internal/twitch"
	"github.com/keagan/clipvault/pkg/util"
)

// VideoAPI is the Helix surface the VOD archiver consumes.
type VideoAPI interface {
	GetVideo(ctx context.Context, id string) (twitch.Video, error)
	GetAllVideos(ctx context.Context, filter twitch.VideoFilter) ([]twitch.Video, error)
	GetUserID(ctx context.Context, login string) (string, error)
	GetCategoryID(ctx context.Context, name string) (string, error)
	IsUserLive(ctx context.Context, userID string) (bool, error)
}

// VideoDownloader fetches VOD media.
type VideoDownloader interface {
	DownloadVideo(ctx context.Context, videoID, path, quality string) error
}

// Converter re-encodes a downloaded transport stream into the archival mp4.
type Converter interface {
	ConvertVideo(ctx context.Context, input, output string) error
}

// VODOptions configures a VOD archive sweep.
type VODOptions struct {
	Broadcaster string
	Period      string
	Type        string
	Category    string
	OutDir      string
	Quality     string
	DeleteAfter bool
}

// VODArchiver downloads a channel's VODs and re-encodes them for storage.
type VODArchiver struct {
	logger zerolog.Logger
	api    VideoAPI
	dl     VideoDownloader
	conv   Converter
}

// NewVODArchiver creates a VOD archiver.
func NewVODArchiver(logger zerolog.Logger, api VideoAPI, dl VideoDownloader, conv Converter) *VODArchiver {
	return &VODArchiver{
		logger: logger.With().Str("component", "vods").Logger(),
		api:    api,
		dl:     dl,
		conv:   conv,
	}
}

// ArchiveVODs downloads every VOD of a broadcaster matching the options.
// While the channel is live the most recent publishes are skipped, since the
// in-progress broadcast's VOD is still growing.
func (v *VODArchiver) ArchiveVODs(ctx context.Context, opts VODOptions) (int, error) {
	broadcasterID, err := v.api.GetUserID(ctx, opts.Broadcaster)
	if err != nil {
		return 0, err
	}
	if broadcasterID == "" {
		return 0, fmt.Errorf("failed to find %s in the platform directory", opts.Broadcaster)
	}

	categoryID := ""
	if opts.Category != "" {
		categoryID, err = v.api.GetCategoryID(ctx, opts.Category)
		if err != nil {
			return 0, err
		}
	}

	videos, err := v.api.GetAllVideos(ctx, twitch.VideoFilter{
		UserID: broadcasterID,
		Period: opts.Period,
		Sort:   "time",
		Type:   opts.Type,
	})
	if err != nil {
		return 0, err
	}

	isLive, err := v.api.IsUserLive(ctx, broadcasterID)
	if err != nil {
		return 0, err
	}

	if err := util.EnsureDir(opts.OutDir); err != nil {
		return 0, err
	}

	downloaded := 0
	seen := make(map[string]bool)
	now := time.Now()

	for _, video := range videos {
		if isLive {
			published, err := video.Published()
			if err == nil && now.Sub(published) < 12*time.Hour {
				v.logger.Info().Str("published", video.PublishedAt).Msg("skipping recently published video")
				continue
			}
		}

		if seen[video.ID] {
			v.logger.Debug().Str("video", video.ID).Msg("got video twice")
			continue
		}
		seen[video.ID] = true

		if categoryID != "" && categoryID != video.GameID {
			continue
		}

		if err := v.archiveVideo(ctx, video, opts); err != nil {
			v.logger.Error().Err(err).Str("video", video.ID).Msg("failed to archive video")
			continue
		}
		downloaded++
	}

	v.logger.Info().Int("downloaded", downloaded).Msg("vod archive complete")
	return downloaded, nil
}

func (v *VODArchiver) archiveVideo(ctx context.Context, video twitch.Video, opts VODOptions) error {
	baseName := strings.ReplaceAll(fmt.Sprintf("%s_[[%s]]", video.CreatedAt, video.ID), ":", "")
	infoPath := filepath.Join(opts.OutDir, baseName+".txt")
	tsPath := filepath.Join(opts.OutDir, baseName+".ts")
	mp4Path := filepath.Join(opts.OutDir, baseName+".mp4")

	if err := v.writeVideoInfo(infoPath, video); err != nil {
		v.logger.Warn().Err(err).Str("video", video.ID).Msg("failed to write video info file")
	}

	if util.FileExists(tsPath) || util.FileExists(mp4Path) {
		v.logger.Info().Str("video", video.ID).Msg("video already downloaded")
		return nil
	}

	quality := opts.Quality
	if quality == "" {
		quality = "720"
	}

	v.logger.Info().Str("video", video.ID).Msg("downloading video")
	if err := v.dl.DownloadVideo(ctx, video.ID, tsPath, quality); err != nil {
		return err
	}

	v.logger.Info().Str("video", video.ID).Msg("converting temp file to mp4")
	if err := v.conv.ConvertVideo(ctx, tsPath, mp4Path); err != nil {
		return err
	}

	if opts.DeleteAfter {
		util.CleanupFiles(tsPath)
	}

	return nil
}

func (v *VODArchiver) writeVideoInfo(path string, video twitch.Video) error {
	meta, err := json.MarshalIndent(video, "", "  ")
	if err != nil {
		return err
	}

	uploaded := video.CreatedAt
	if created, err := video.Created(); err == nil {
		uploaded = created.Format("2006-01-02 15:04:05")
	}

	info := fmt.Sprintf("Title: %s\n\n%s\n\n%s", video.Title, uploaded, string(meta))
	return os.WriteFile(path, []byte(info), 0644)
}
