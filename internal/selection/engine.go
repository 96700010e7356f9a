package selection

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/keagan/clipvault/internal/timewindow"
	"github.com/keagan/clipvault/internal/twitch"
)

// ClipLister pages through the clip listing API. The empty cursor signals the
// last page. Pages arrive in descending view-count order; the early
// termination rule depends on that.
type ClipLister interface {
	GetClips(ctx context.Context, filter twitch.ClipFilter) ([]twitch.Clip, string, error)
}

// VideoSource resolves broadcast metadata for true-timestamp derivation.
type VideoSource interface {
	GetVideo(ctx context.Context, id string) (twitch.Video, error)
}

// Config tunes the selection engine.
type Config struct {
	MaxClips     int
	PageSize     int
	LowWaterMark int
	DedupWindow  time.Duration
	CollectAll   bool
}

// DefaultConfig returns the engine defaults used by the compile workflow.
func DefaultConfig() Config {
	return Config{
		MaxClips:     20,
		PageSize:     5,
		LowWaterMark: 5,
		DedupWindow:  90 * time.Second,
	}
}

// Pick is one admitted clip together with its derived true timestamp.
type Pick struct {
	Time  time.Time
	Views int
	Clip  twitch.Clip
}

// Result is the engine output: the bounded admitted set plus, in stats mode,
// the unbounded log of every in-window candidate.
type Result struct {
	Picks []Pick
	Log   []twitch.Clip
}

// Engine fetches candidate clips for a window and decides which to admit,
// suppressing near-duplicates recorded from overlapping live moments.
type Engine struct {
	logger zerolog.Logger
	clips  ClipLister
	videos VideoSource
	cfg    Config

	videoStarts map[string]time.Time
}

// New creates a selection engine.
func New(logger zerolog.Logger, clips ClipLister, videos VideoSource, cfg Config) *Engine {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 90 * time.Second
	}

	return &Engine{
		logger:      logger.With().Str("component", "selection").Logger(),
		clips:       clips,
		videos:      videos,
		cfg:         cfg,
		videoStarts: make(map[string]time.Time),
	}
}

// Run pages through the clip listing for the buffered window and applies the
// admission rules in arrival order. Upstream listing failures are terminal;
// per-clip lookup failures skip only that clip.
func (e *Engine) Run(ctx context.Context, broadcasterID string, window timewindow.Window) (*Result, error) {
	filter := twitch.ClipFilter{
		BroadcasterID: broadcasterID,
		StartedAt:     window.BufferedStart,
		EndedAt:       window.BufferedEnd,
		First:         e.cfg.PageSize,
	}

	result := &Result{}
	fetching := true
	admitting := true

	for fetching {
		clips, cursor, err := e.clips.GetClips(ctx, filter)
		if err != nil {
			return nil, err
		}

		if cursor != "" {
			filter.After = cursor
		} else {
			fetching = false
		}

		for _, clip := range clips {
			// Server order is descending by views, so everything past
			// the low-water mark is noise.
			if clip.ViewCount < e.cfg.LowWaterMark {
				fetching = false
				break
			}

			if clip.ID == "" || clip.Title == "" {
				e.logger.Warn().Str("clip", clip.ID).Msg("clip missing required fields, skipping")
				continue
			}

			trueTime, err := e.trueTime(ctx, clip)
			if err != nil {
				e.logger.Warn().Err(err).Str("clip", clip.ID).Msg("failed to derive clip time, skipping")
				continue
			}

			if !window.Contains(trueTime) {
				e.logger.Debug().
					Str("clip", clip.Title).
					Time("time", trueTime).
					Msg("clip not in range")
				continue
			}

			if e.cfg.CollectAll {
				result.Log = append(result.Log, clip)
			}

			if admitting && !e.duplicated(result.Picks, trueTime, clip) {
				result.Picks = append(result.Picks, Pick{Time: trueTime, Views: clip.ViewCount, Clip: clip})
			}

			if e.cfg.MaxClips > 0 && len(result.Picks) >= e.cfg.MaxClips {
				if e.cfg.CollectAll {
					admitting = false
				} else {
					fetching = false
					break
				}
			}
		}
	}

	e.logger.Info().Int("selected", len(result.Picks)).Int("logged", len(result.Log)).Msg("clip selection complete")
	return result, nil
}

// duplicated runs the any-match duplicate scan against every admitted clip.
// The scan is quadratic on purpose: the admitted set is bounded by MaxClips.
func (e *Engine) duplicated(picks []Pick, trueTime time.Time, clip twitch.Clip) bool {
	for _, prior := range picks {
		if e.isDuplicate(prior, trueTime, clip) {
			e.logger.Info().
				Str("skipped", clip.Title).
				Str("kept", prior.Clip.Title).
				Msg("skipping near-duplicate clip")
			return true
		}
	}
	return false
}

// isDuplicate decides whether two clips capture the same live moment. When
// either side cannot be placed inside a broadcast, wall-clock proximity of the
// true timestamps decides. When both sides reference the same broadcast the
// more precise VOD offsets decide instead. Clips from different broadcasts
// with valid offsets are never offset-compared.
func (e *Engine) isDuplicate(prior Pick, trueTime time.Time, clip twitch.Clip) bool {
	if !clip.HasVODReference() || !prior.Clip.HasVODReference() {
		return absDuration(trueTime.Sub(prior.Time)) < e.cfg.DedupWindow
	}

	if prior.Clip.VideoID == clip.VideoID {
		delta := time.Duration(*clip.VODOffset-*prior.Clip.VODOffset) * time.Second
		return absDuration(delta) < e.cfg.DedupWindow
	}

	return false
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
