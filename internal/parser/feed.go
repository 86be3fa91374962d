// Package parser converts raw YouTube channel RSS documents into structured
// video entries. YouTube publishes Atom 1.0 with yt: and media: namespace
// extensions; real-world feeds are noisy, so extraction is fallback-chained
// per field and a bad entry never fails the whole parse.
package parser

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"time"
)

var watchParamRegex = regexp.MustCompile(`[?&]v=([a-zA-Z0-9_-]{11})`)

// ParseError reports a feed document that could not be parsed at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse feed: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// VideoEntry is one parsed feed item. Entries missing a resolvable video id,
// link or publish timestamp are dropped, never forwarded.
type VideoEntry struct {
	VideoID      string
	Title        string
	URL          string
	PublishedAt  time.Time
	Author       string
	ThumbnailURL *string
}

// SkippedEntry records a feed item the parser dropped and why. Skips are
// expected feed noise, not run errors, but they should be observable.
type SkippedEntry struct {
	Index  int
	Reason string
}

// Result is the outcome of parsing one feed document.
type Result struct {
	Entries []VideoEntry
	Skipped []SkippedEntry
}

// atomFeed mirrors the YouTube channel feed layout. All leaf values are
// strings so one malformed field cannot fail the document decode.
type atomFeed struct {
	XMLName xml.Name    `xml:"http://www.w3.org/2005/Atom feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	VideoID     string         `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	ChannelName string         `xml:"http://www.youtube.com/xml/schemas/2015 channelName"`
	Title       string         `xml:"title"`
	Links       []atomLink     `xml:"link"`
	Published   string         `xml:"published"`
	Updated     string         `xml:"updated"`
	Author      atomAuthor     `xml:"author"`
	MediaGroup  atomMediaGroup `xml:"http://search.yahoo.com/mrss/ group"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomMediaGroup struct {
	Thumbnails []atomThumbnail `xml:"http://search.yahoo.com/mrss/ thumbnail"`
}

type atomThumbnail struct {
	URL string `xml:"url,attr"`
}

// ParseFeed parses a raw feed document. It returns a ParseError only when the
// document is not XML at all or the feed root is absent; individual bad
// entries are skipped and reported in Result.Skipped, preserving the feed's
// entry order for the survivors.
func ParseFeed(raw string) (*Result, error) {
	var feed atomFeed
	if err := xml.Unmarshal([]byte(raw), &feed); err != nil {
		return &Result{}, &ParseError{Err: err}
	}

	result := &Result{}
	for i, entry := range feed.Entries {
		parsed, reason := parseEntry(entry)
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedEntry{Index: i, Reason: reason})
			continue
		}
		result.Entries = append(result.Entries, *parsed)
	}

	return result, nil
}

// parseEntry extracts one entry, applying the per-field fallback chains.
// An empty reason means success.
func parseEntry(entry atomEntry) (*VideoEntry, string) {
	link := extractLink(entry)

	videoID := extractVideoID(entry, link)
	if videoID == "" {
		return nil, "no resolvable video id"
	}

	if link == "" {
		return nil, "no link"
	}

	publishedAt, ok := extractPublished(entry)
	if !ok {
		return nil, "no publish timestamp"
	}

	return &VideoEntry{
		VideoID:      videoID,
		Title:        extractTitle(entry),
		URL:          link,
		PublishedAt:  publishedAt,
		Author:       extractAuthor(entry),
		ThumbnailURL: extractThumbnail(entry),
	}, ""
}

// extractVideoID prefers the yt:videoId element, falling back to the v= query
// parameter of the entry link.
func extractVideoID(entry atomEntry, link string) string {
	if entry.VideoID != "" {
		return entry.VideoID
	}
	if m := watchParamRegex.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

func extractLink(entry atomEntry) string {
	for _, l := range entry.Links {
		if l.Href != "" {
			return l.Href
		}
	}
	return ""
}

func extractTitle(entry atomEntry) string {
	if entry.Title == "" {
		return "Untitled"
	}
	return entry.Title
}

// extractPublished prefers the published element, falling back to updated.
// Feeds use RFC3339; a few emit RFC1123-style dates.
func extractPublished(entry atomEntry) (time.Time, bool) {
	for _, raw := range []string{entry.Published, entry.Updated} {
		if raw == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, time.RFC1123Z, time.RFC1123} {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

func extractAuthor(entry atomEntry) string {
	if entry.Author.Name != "" {
		return entry.Author.Name
	}
	if entry.ChannelName != "" {
		return entry.ChannelName
	}
	return "Unknown"
}

func extractThumbnail(entry atomEntry) *string {
	for _, t := range entry.MediaGroup.Thumbnails {
		if t.URL != "" {
			url := t.URL
			return &url
		}
	}
	return nil
}
