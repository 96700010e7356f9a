package archive

import "regexp"

var (
	clipLinkRE   = regexp.MustCompile(`^https?://clips\.twitch\.tv/([A-Za-z0-9\-_]{12,})`)
	mobileLinkRE = regexp.MustCompile(`^https?://m\.twitch\.tv/clip/([A-Za-z0-9\-_]{12,})`)
	clipIDRE     = regexp.MustCompile(`^([A-Za-z0-9\-_]{12,})`)
)

// ClipIDFromString extracts a clip slug from a raw ID, a clips.twitch.tv link
// or a mobile link. Returns the empty string when nothing matches.
func ClipIDFromString(s string) string {
	if m := clipLinkRE.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := mobileLinkRE.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := clipIDRE.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
