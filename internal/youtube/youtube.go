// Package youtube contains YouTube-specific helpers: id extraction, feed URL
// validation and repair, and short-form classification.
package youtube

import (
	"fmt"
	"regexp"
	"strings"
)

const feedURLPrefix = "https://www.youtube.com/feeds/videos.xml?channel_id="

var (
	videoIDRegex   = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	channelIDRegex = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)

	youtuBeRegex   = regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`)
	shortsRegex    = regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`)
	watchRegex     = regexp.MustCompile(`[?&]v=([a-zA-Z0-9_-]{11})`)
	embedRegex     = regexp.MustCompile(`embed/([a-zA-Z0-9_-]{11})`)
	feedParamRegex = regexp.MustCompile(`[?&]channel_id=(UC[a-zA-Z0-9_-]{22})`)
)

// IsValidVideoID reports whether s is an 11-character YouTube video id.
func IsValidVideoID(s string) bool {
	return videoIDRegex.MatchString(s)
}

// IsValidChannelID reports whether s is a canonical UC-prefixed channel id.
func IsValidChannelID(s string) bool {
	return channelIDRegex.MatchString(strings.TrimSpace(s))
}

// ExtractVideoID extracts the video id from a watch, youtu.be, shorts or embed
// URL, or from a bare 11-character id. Returns "" if nothing matches.
func ExtractVideoID(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}

	for _, re := range []*regexp.Regexp{youtuBeRegex, shortsRegex, watchRegex, embedRegex} {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}

	if videoIDRegex.MatchString(url) {
		return url
	}

	return ""
}

// IsShort reports whether a video is a short-form video, judged from the URL
// path and the title text. A title merely containing "shorts" counts, which
// intentionally over-matches; the flag can be toggled per video afterwards.
func IsShort(url, title string) bool {
	if strings.Contains(url, "/shorts/") {
		return true
	}

	if title != "" && strings.Contains(strings.ToLower(title), "shorts") {
		return true
	}

	return false
}

// FeedURL builds the canonical RSS feed URL for a channel id.
func FeedURL(channelID string) string {
	return feedURLPrefix + strings.TrimSpace(channelID)
}

// CanonicalFeedURL validates a feed address and repairs it into canonical form
// when it carries a recoverable channel id. Handle-style URLs cannot be
// repaired without an external lookup and are reported as an error.
func CanonicalFeedURL(rssURL string) (string, error) {
	rssURL = strings.TrimSpace(rssURL)

	if m := feedParamRegex.FindStringSubmatch(rssURL); m != nil {
		return FeedURL(m[1]), nil
	}

	// A bare channel id, or a channel page URL, still identifies the feed.
	if m := channelPathRegex.FindStringSubmatch(rssURL); m != nil {
		return FeedURL(m[1]), nil
	}
	if IsValidChannelID(rssURL) {
		return FeedURL(rssURL), nil
	}

	return "", fmt.Errorf("feed address %q has no recoverable channel id", rssURL)
}

var channelPathRegex = regexp.MustCompile(`youtube\.com/channel/(UC[a-zA-Z0-9_-]{22})`)
