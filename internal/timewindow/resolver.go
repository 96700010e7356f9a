package timewindow

import (
	"fmt"
	"strings"
	"time"

	"github.com/keagan/clipvault/internal/twitch"
)

// Window is a resolved search interval. Start/End bound the strict inclusion
// test; BufferedStart/BufferedEnd bound candidate fetching. Computed once per
// run and never mutated.
type Window struct {
	Start         time.Time
	End           time.Time
	BufferedStart time.Time
	BufferedEnd   time.Time
}

// Contains reports whether t falls strictly inside the unbuffered window.
func (w Window) Contains(t time.Time) bool {
	return t.After(w.Start) && t.Before(w.End)
}

// ResolveRange builds a window from explicit start/end timestamps interpreted
// in the given location, widened symmetrically by buffer on each side for the
// fetch interval.
func ResolveRange(start, end string, loc *time.Location, buffer time.Duration) (Window, error) {
	startTime, err := time.ParseInLocation(twitch.TimeFormat, start, loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid start timestamp %q: %w", start, err)
	}
	endTime, err := time.ParseInLocation(twitch.TimeFormat, end, loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid end timestamp %q: %w", end, err)
	}

	return Window{
		Start:         startTime,
		End:           endTime,
		BufferedStart: startTime.Add(-buffer),
		BufferedEnd:   endTime.Add(buffer),
	}, nil
}

// ResolveVideo builds a window covering exactly one broadcast: start is the
// video's creation time, end is start plus its parsed duration. The broadcast
// already bounds its own clips, so no buffering is applied.
func ResolveVideo(video twitch.Video, loc *time.Location) (Window, error) {
	created, err := video.Created()
	if err != nil {
		return Window{}, fmt.Errorf("invalid video timestamp %q: %w", video.CreatedAt, err)
	}
	start := created.In(loc)

	duration, err := ParseVideoDuration(video.Duration)
	if err != nil {
		return Window{}, err
	}
	end := start.Add(duration)

	return Window{
		Start:         start,
		End:           end,
		BufferedStart: start,
		BufferedEnd:   end,
	}, nil
}

// ParseVideoDuration parses the duration strings the video API emits. Exactly
// three shapes exist: "HhMmSs", "MmSs" and "Ss" -- hours and minutes are
// optional, seconds always present. The variant is chosen by the presence of
// 'h' then 'm'; anything else is rejected rather than guessed at.
func ParseVideoDuration(s string) (time.Duration, error) {
	var hours, minutes, seconds int

	var err error
	switch {
	case strings.Contains(s, "h"):
		_, err = fmt.Sscanf(s, "%dh%dm%ds", &hours, &minutes, &seconds)
	case strings.Contains(s, "m"):
		_, err = fmt.Sscanf(s, "%dm%ds", &minutes, &seconds)
	default:
		_, err = fmt.Sscanf(s, "%ds", &seconds)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid video duration %q: %w", s, err)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second, nil
}
