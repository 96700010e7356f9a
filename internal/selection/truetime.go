package selection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/keagan/clipvault/internal/twitch"
)

// trueTime derives the absolute wall-clock moment a clip was recorded. Clips
// anchored to a broadcast use the broadcast start plus the VOD offset; loose
// clips fall back to their own creation timestamp. Broadcast start times are
// looked up once per video and cached for the rest of the run.
func (e *Engine) trueTime(ctx context.Context, clip twitch.Clip) (time.Time, error) {
	if !clip.HasVODReference() {
		created, err := clip.Created()
		if err != nil {
			return time.Time{}, fmt.Errorf("clip %s has no usable timestamp: %w", clip.ID, err)
		}
		return created, nil
	}

	start, ok := e.videoStarts[clip.VideoID]
	if !ok {
		video, err := e.videos.GetVideo(ctx, clip.VideoID)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to resolve broadcast %s: %w", clip.VideoID, err)
		}
		start, err = video.Created()
		if err != nil {
			return time.Time{}, fmt.Errorf("broadcast %s has an invalid start time: %w", clip.VideoID, err)
		}
		e.videoStarts[clip.VideoID] = start
	}

	return start.Add(time.Duration(*clip.VODOffset) * time.Second), nil
}

// SortChronological orders picks by true timestamp ascending.
func SortChronological(picks []Pick) {
	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].Time.Before(picks[j].Time)
	})
}

// SortByViews orders picks by view count ascending; consumers index the slice
// in reverse to present a highest-first countdown.
func SortByViews(picks []Pick) {
	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].Views < picks[j].Views
	})
}
