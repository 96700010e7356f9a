package ffmpeg

import (
	"fmt"
	"strings"
)

// TextBox is one boxed text field burned into the frame.
type TextBox struct {
	Text     string
	X        string
	Y        string
	BoxAlpha float64
}

// Common placements, expressed in ffmpeg drawtext coordinates.
const (
	PosTopLeft     = "20"
	PosBottomLeftY = "h-th-20"
	PosRightX      = "w-tw-20"
)

// BuildDrawText assembles the drawtext filter chain for a set of text boxes,
// all enabled between start and end seconds. Text values must already be
// escaped for filter syntax.
func BuildDrawText(fontFile string, fontSize int, boxes []TextBox, start, end int) string {
	parts := make([]string, 0, len(boxes))
	for _, box := range boxes {
		parts = append(parts, fmt.Sprintf(
			"drawtext=fontfile='%s':text='%s':fontcolor=yellow:fontsize=%d:box=1:boxcolor=black@%.1f:boxborderw=5:x=%s:y=%s:enable='between(t,%d,%d)'",
			fontFile, box.Text, fontSize, box.BoxAlpha, box.X, box.Y, start, end))
	}
	return strings.Join(parts, ",")
}

// EscapeText sanitizes a string for use inside a drawtext filter: colons are
// escaped and single quotes dropped entirely.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, ":", "\\:")
	return strings.ReplaceAll(s, "'", "")
}
