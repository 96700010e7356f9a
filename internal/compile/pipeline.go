package compile

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/keagan/clipvault/internal/ffmpeg"
	"github.com/keagan/clipvault/internal/selection"
	"github.com/keagan/clipvault/internal/timewindow"
	"github.com/keagan/clipvault/pkg/util"
)

// Downloader fetches clip media to a local file.
type Downloader interface {
	DownloadClip(ctx context.Context, slug, path string) error
}

// Transcoder is the subset of ffmpeg operations the pipeline invokes.
type Transcoder interface {
	Reencode(ctx context.Context, opts ffmpeg.ReencodeOptions) error
	DrawText(ctx context.Context, input, output, filter string) error
	Concat(ctx context.Context, manifest, output string) error
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

// Options configures a compilation run. Location is the timezone overlay
// dates are rendered in; nil means UTC.
type Options struct {
	OutDir        string
	Output        string
	FontFile      string
	FontSize      int
	TextDuration  float64
	Preset        string
	Chronological bool
	Attribution   string
	Location      *time.Location
}

// Pipeline turns the ordered selection into a single compiled video: each
// clip is downloaded, re-encoded, overlaid with its info text and appended to
// the concat manifest, then one concat pass produces the output.
type Pipeline struct {
	logger zerolog.Logger
	dl     Downloader
	ff     Transcoder
	opts   Options
}

// New creates a compilation pipeline.
func New(logger zerolog.Logger, dl Downloader, ff Transcoder, opts Options) *Pipeline {
	if opts.FontSize <= 0 {
		opts.FontSize = 36
	}
	if opts.TextDuration <= 0 {
		opts.TextDuration = 15.0
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &Pipeline{
		logger: logger.With().Str("component", "compile").Logger(),
		dl:     dl,
		ff:     ff,
		opts:   opts,
	}
}

// Compile renders every pick and concatenates the results. Reruns skip clips
// whose output file already exists, so an interrupted run can resume. Per-clip
// failures are logged and skipped; only the final concat is fatal.
func (p *Pipeline) Compile(ctx context.Context, picks []selection.Pick, window timewindow.Window) error {
	if len(picks) == 0 {
		return fmt.Errorf("nothing to compile")
	}

	if err := util.EnsureDir(p.opts.OutDir); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	if p.opts.Chronological {
		selection.SortChronological(picks)
	} else {
		selection.SortByViews(picks)
	}

	manifestPath := filepath.Join(p.opts.OutDir, "concat.txt")
	manifest, err := os.Create(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to create concat manifest: %w", err)
	}
	defer manifest.Close()

	descPath := filepath.Join(p.opts.OutDir, "desc.txt")
	desc, err := os.Create(descPath)
	if err != nil {
		return fmt.Errorf("failed to create description file: %w", err)
	}
	defer desc.Close()

	fmt.Fprintf(desc, "Top clips from %s until %s.\n\n%s\n\n\nClips: \n",
		window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"), p.opts.Attribution)

	for i, pick := range picks {
		fileName := pick.Clip.ID + ".mp4"
		fullPath := filepath.Join(p.opts.OutDir, fileName)

		if util.FileExists(fullPath) {
			p.logger.Info().Str("clip", pick.Clip.ID).Msg("clip already rendered")
		} else if err := p.renderClip(ctx, i, len(picks), pick, fullPath); err != nil {
			p.logger.Error().Err(err).Str("clip", pick.Clip.ID).Msg("failed to render clip, skipping")
			continue
		}

		// Manifest and description writes are best-effort per clip.
		if _, err := fmt.Fprintf(manifest, "file %s\n", fileName); err != nil {
			p.logger.Warn().Err(err).Str("clip", pick.Clip.ID).Msg("failed to write manifest line")
		}
		if _, err := fmt.Fprintf(desc, "\"%s\"\nhttps://clips.twitch.tv/%s\n", pick.Clip.Title, pick.Clip.ID); err != nil {
			p.logger.Warn().Err(err).Str("clip", pick.Clip.ID).Msg("failed to write description line")
		}
	}

	p.logger.Info().Str("output", p.opts.Output).Msg("concatenating all clips")
	return p.ff.Concat(ctx, manifestPath, p.opts.Output)
}

// renderClip downloads one clip and runs the two transcode passes, leaving
// the finished file at fullPath. Temp files are cleaned up on every path.
func (p *Pipeline) renderClip(ctx context.Context, index, total int, pick selection.Pick, fullPath string) error {
	tmpBase := filepath.Join(p.opts.OutDir, "tmp-"+uuid.NewString())
	raw := tmpBase + ".mp4"
	scaled := tmpBase + "-720p.mp4"
	overlaid := tmpBase + "-text.mp4"
	defer util.CleanupFiles(raw, scaled)

	p.logger.Info().Str("clip", pick.Clip.ID).Msg("downloading clip")
	if err := p.dl.DownloadClip(ctx, pick.Clip.ID, raw); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	p.logger.Info().Str("clip", pick.Clip.ID).Msg("converting to 720p h264")
	if err := p.ff.Reencode(ctx, ffmpeg.ReencodeOptions{
		Input:  raw,
		Output: scaled,
		Preset: p.opts.Preset,
		ProgressFunc: func(progress *ffmpeg.Progress) {
			p.logger.Debug().
				Str("clip", pick.Clip.ID).
				Int("frame", progress.Frame).
				Str("time", progress.Time).
				Str("speed", progress.Speed).
				Msg("re-encode progress")
		},
	}); err != nil {
		return err
	}

	// The API's reported clip duration is occasionally off by a second or
	// two; the rendered file is authoritative for the overlay window.
	clipSeconds := pick.Clip.Duration
	if probed, err := p.ff.ProbeDuration(ctx, scaled); err != nil {
		p.logger.Warn().Err(err).Str("clip", pick.Clip.ID).Msg("probe failed, using reported clip duration")
	} else if probed > 0 {
		clipSeconds = probed.Seconds()
	}

	filter := p.overlayFilter(index, total, pick, clipSeconds)
	p.logger.Info().Str("clip", pick.Clip.ID).Msg("adding text to video")
	if err := p.ff.DrawText(ctx, scaled, overlaid, filter); err != nil {
		util.CleanupFiles(overlaid)
		return err
	}

	if err := os.Rename(overlaid, fullPath); err != nil {
		util.CleanupFiles(overlaid)
		return fmt.Errorf("failed to move rendered clip into place: %w", err)
	}

	return nil
}

// overlayFilter builds the three-field drawtext chain for one clip: the title
// line top-left, the view count bottom-left and the date bottom-right, all
// visible only for the configured text duration at the start of the clip.
func (p *Pipeline) overlayFilter(index, total int, pick selection.Pick, clipSeconds float64) string {
	titleLine := fmt.Sprintf("%s - clipped by %s", pick.Clip.Title, pick.Clip.CreatorName)
	if !p.opts.Chronological {
		// Popularity mode counts down to the most viewed clip.
		titleLine = fmt.Sprintf("#%d - %s", total-index, titleLine)
	}

	textEnd := int(math.Floor(math.Min(p.opts.TextDuration, clipSeconds)))
	font := filepath.ToSlash(p.opts.FontFile)

	boxes := []ffmpeg.TextBox{
		{Text: ffmpeg.EscapeText(titleLine), X: ffmpeg.PosTopLeft, Y: ffmpeg.PosTopLeft, BoxAlpha: 0.5},
		{Text: fmt.Sprintf("%d views", pick.Views), X: ffmpeg.PosTopLeft, Y: ffmpeg.PosBottomLeftY, BoxAlpha: 0.7},
		{Text: pick.Time.In(p.opts.Location).Format("2006-01-02"), X: ffmpeg.PosRightX, Y: ffmpeg.PosBottomLeftY, BoxAlpha: 0.7},
	}

	return ffmpeg.BuildDrawText(font, p.opts.FontSize, boxes, 0, textEnd)
}
