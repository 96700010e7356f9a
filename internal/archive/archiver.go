package archive

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/keagan/clipvault/internal/mediacms"
	"github.com/keagan/clipvault/internal/twitch"
)

// ClipAPI is the Helix surface the archiver consumes.
type ClipAPI interface {
	GetClip(ctx context.Context, id string) (twitch.Clip, error)
	GetClips(ctx context.Context, filter twitch.ClipFilter) ([]twitch.Clip, string, error)
	GetUserID(ctx context.Context, login string) (string, error)
	GetCategoryID(ctx context.Context, name string) (string, error)
	GetCategoryName(ctx context.Context, id string) (string, error)
}

// Downloader fetches clip media.
type Downloader interface {
	DownloadClip(ctx context.Context, slug, path string) error
}

// Library is the media library surface the archiver consumes.
type Library interface {
	Search(ctx context.Context, query string) (mediacms.SearchResult, error)
	Upload(ctx context.Context, path, title, description string) error
}

// Options configures an archiver.
type Options struct {
	OutDir      string
	DeleteAfter bool
}

// Archiver moves clips from the platform into the self-hosted library,
// skipping anything the library already holds.
type Archiver struct {
	logger zerolog.Logger
	api    ClipAPI
	dl     Downloader
	lib    Library
	opts   Options
}

// New creates an archiver.
func New(logger zerolog.Logger, api ClipAPI, dl Downloader, lib Library, opts Options) *Archiver {
	return &Archiver{
		logger: logger.With().Str("component", "archive").Logger(),
		api:    api,
		dl:     dl,
		lib:    lib,
		opts:   opts,
	}
}

// ArchiveClip archives a single clip given its ID or URL. Returns true when a
// new clip was uploaded, false when the library already had it.
func (a *Archiver) ArchiveClip(ctx context.Context, clipString string) (bool, error) {
	clipID := ClipIDFromString(clipString)
	if clipID == "" {
		return false, fmt.Errorf("failed to locate clip ID in %q", clipString)
	}

	return a.archiveByID(ctx, clipID)
}

// ArchiveFile archives every clip ID or link listed in a text file, one per
// line. Bad lines and per-clip failures are logged and skipped.
func (a *Archiver) ArchiveFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open clip list %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		clipID := ClipIDFromString(line)
		if clipID == "" {
			a.logger.Warn().Str("line", line).Msg("failed to locate clip ID")
			continue
		}

		if _, err := a.archiveByID(ctx, clipID); err != nil {
			a.logger.Error().Err(err).Str("clip", clipID).Msg("failed to archive clip")
		}
	}

	return scanner.Err()
}

// RangeOptions configures a time-range archive sweep.
type RangeOptions struct {
	Broadcaster string
	Start       string
	End         string
	Timezone    string
	MinViews    int
	Category    string
	PageSize    int
}

// ArchiveRange archives every clip of a broadcaster inside a time range,
// stopping once view counts drop below the configured floor. Category
// filtering happens client-side after the fetch.
func (a *Archiver) ArchiveRange(ctx context.Context, opts RangeOptions) (int, error) {
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return 0, fmt.Errorf("unknown timezone %q: %w", opts.Timezone, err)
	}

	start, err := time.ParseInLocation(twitch.TimeFormat, opts.Start, loc)
	if err != nil {
		return 0, fmt.Errorf("invalid start timestamp %q: %w", opts.Start, err)
	}
	end, err := time.ParseInLocation(twitch.TimeFormat, opts.End, loc)
	if err != nil {
		return 0, fmt.Errorf("invalid end timestamp %q: %w", opts.End, err)
	}

	broadcasterID, err := a.api.GetUserID(ctx, opts.Broadcaster)
	if err != nil {
		return 0, err
	}
	if broadcasterID == "" {
		return 0, fmt.Errorf("failed to find %s in the platform directory", opts.Broadcaster)
	}

	categoryID := ""
	if opts.Category != "" {
		categoryID, err = a.api.GetCategoryID(ctx, opts.Category)
		if err != nil {
			return 0, err
		}
		a.logger.Info().Str("category", opts.Category).Str("id", categoryID).Msg("resolved category")
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	filter := twitch.ClipFilter{
		BroadcasterID: broadcasterID,
		StartedAt:     start,
		EndedAt:       end,
		First:         pageSize,
	}

	archived := 0
	seen := make(map[string]bool)
	fetching := true

	for fetching {
		clips, cursor, err := a.api.GetClips(ctx, filter)
		if err != nil {
			return archived, err
		}

		if cursor != "" {
			filter.After = cursor
		} else {
			fetching = false
		}

		for _, clip := range clips {
			if seen[clip.ID] {
				a.logger.Debug().Str("clip", clip.ID).Msg("got clip twice while fetching")
				continue
			}

			if categoryID == "" || categoryID == clip.GameID {
				isNew, err := a.archiveByID(ctx, clip.ID)
				if err != nil {
					a.logger.Error().Err(err).Str("clip", clip.ID).Msg("failed to archive clip")
				} else if isNew {
					archived++
				}
				seen[clip.ID] = true
			}

			// Descending view order: once below the floor, the rest is too.
			if clip.ViewCount < opts.MinViews {
				fetching = false
				break
			}
		}
	}

	a.logger.Info().Int("archived", archived).Msg("range archive complete")
	return archived, nil
}

// archiveByID downloads one clip and uploads it to the library unless the
// library already has it.
func (a *Archiver) archiveByID(ctx context.Context, clipID string) (bool, error) {
	if a.alreadyArchived(ctx, clipID) {
		return false, nil
	}

	clip, err := a.api.GetClip(ctx, clipID)
	if err != nil {
		return false, err
	}

	fileName := fmt.Sprintf("%d_[[%s]].mp4", clip.ViewCount, clip.ID)
	fullPath := filepath.Join(a.opts.OutDir, fileName)

	description, err := a.clipDescription(ctx, clip)
	if err != nil {
		return false, err
	}

	a.logger.Info().Str("clip", clipID).Msg("downloading clip")
	if err := a.dl.DownloadClip(ctx, clipID, fullPath); err != nil {
		return false, err
	}

	a.logger.Info().Str("clip", clipID).Str("title", clip.Title).Msg("uploading clip to library")
	if err := a.lib.Upload(ctx, fullPath, clip.Title, description); err != nil {
		return false, err
	}

	if a.opts.DeleteAfter {
		if err := os.Remove(fullPath); err != nil {
			a.logger.Warn().Err(err).Str("path", fullPath).Msg("failed to delete archived clip")
		}
	}

	return true, nil
}

// alreadyArchived probes the library for the clip under the four query
// shapes the search index responds to. A failed search is logged and treated
// as no match.
func (a *Archiver) alreadyArchived(ctx context.Context, clipID string) bool {
	spaced := strings.ReplaceAll(clipID, "-", " ")
	queries := []string{
		spaced,
		clipID,
		"https://clips.twitch.tv/" + spaced,
		"https://clips.twitch.tv/" + clipID,
	}

	for _, query := range queries {
		result, err := a.lib.Search(ctx, query)
		if err != nil {
			a.logger.Warn().Err(err).Str("query", query).Msg("library search failed")
			continue
		}
		if result.Count > 0 {
			url := ""
			if len(result.Results) > 0 {
				url = result.Results[0].URL
			}
			a.logger.Info().Str("clip", clipID).Str("url", url).Msg("clip already archived, skipping")
			return true
		}
	}

	return false
}

func (a *Archiver) clipDescription(ctx context.Context, clip twitch.Clip) (string, error) {
	created, err := clip.Created()
	if err != nil {
		return "", fmt.Errorf("clip %s has an invalid timestamp: %w", clip.ID, err)
	}

	categoryName, err := a.api.GetCategoryName(ctx, clip.GameID)
	if err != nil {
		a.logger.Warn().Err(err).Str("clip", clip.ID).Msg("failed to resolve category name")
		categoryName = ""
	}

	return fmt.Sprintf(`%d views

%s

Category: %s

Clip link: https://clips.twitch.tv/%s

Clipped by %s`,
		clip.ViewCount,
		created.Format("2006-01-02 15:04:05"),
		categoryName,
		clip.ID,
		clip.CreatorName), nil
}
