package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// ErrUnsupportedURL is returned when a URL carries neither a channel id nor a handle.
var ErrUnsupportedURL = errors.New("unsupported channel URL format")

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolver resolves channel URLs, including @handle URLs, to canonical channel
// ids. Handle resolution scrapes the channel page and is best-effort: the page
// markup is not a stable contract.
type Resolver struct {
	client    HTTPClient
	userAgent string
}

// NewResolver creates a Resolver. A nil client falls back to http.DefaultClient.
func NewResolver(client HTTPClient, userAgent string) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{client: client, userAgent: userAgent}
}

var handleRegex = regexp.MustCompile(`youtube\.com/@([a-zA-Z0-9_.-]+)`)

// Resolution is the outcome of resolving a channel URL.
type Resolution struct {
	ChannelID string `json:"channel_id"`
	RSSURL    string `json:"rss_url"`
}

// Resolve maps a channel URL to its canonical channel id and feed URL.
// Channel-page and feed URLs are resolved offline; @handle URLs require
// fetching the channel page.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*Resolution, error) {
	rawURL = strings.TrimSpace(rawURL)

	if m := channelPathRegex.FindStringSubmatch(rawURL); m != nil {
		return &Resolution{ChannelID: m[1], RSSURL: FeedURL(m[1])}, nil
	}
	if m := feedParamRegex.FindStringSubmatch(rawURL); m != nil {
		return &Resolution{ChannelID: m[1], RSSURL: rawURL}, nil
	}
	if handleRegex.MatchString(rawURL) {
		return r.resolveHandle(ctx, rawURL)
	}

	return nil, ErrUnsupportedURL
}

func (r *Resolver) resolveHandle(ctx context.Context, pageURL string) (*Resolution, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build channel page request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch channel page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch channel page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read channel page: %w", err)
	}

	channelID, ok := channelIDFromPage(string(body))
	if !ok {
		return nil, fmt.Errorf("could not extract channel id from page %s", pageURL)
	}

	return &Resolution{ChannelID: channelID, RSSURL: FeedURL(channelID)}, nil
}

var (
	metaChannelIDRegex = regexp.MustCompile(`"channelId"\s*:\s*"(UC[a-zA-Z0-9_-]{22})"`)
	externalIDRegex    = regexp.MustCompile(`"externalId"\s*:\s*"(UC[a-zA-Z0-9_-]{22})"`)
	browseIDRegex      = regexp.MustCompile(`"browseId"\s*:\s*"(UC[a-zA-Z0-9_-]{22})"`)
	canonicalLinkRegex = regexp.MustCompile(`<link\s+rel="canonical"\s+href="https://www\.youtube\.com/channel/(UC[a-zA-Z0-9_-]{22})"`)
	jsonLDRegex        = regexp.MustCompile(`(?s)<script\s+type="application/ld\+json"[^>]*>(.*?)</script>`)
)

// channelIDFromPage tries the known channel id markers in the page HTML in
// order of reliability.
func channelIDFromPage(html string) (string, bool) {
	for _, re := range []*regexp.Regexp{metaChannelIDRegex, externalIDRegex, browseIDRegex, canonicalLinkRegex} {
		if m := re.FindStringSubmatch(html); m != nil {
			return m[1], true
		}
	}

	if m := jsonLDRegex.FindStringSubmatch(html); m != nil {
		var ld struct {
			Identifier struct {
				Value string `json:"value"`
			} `json:"identifier"`
		}
		if err := json.Unmarshal([]byte(m[1]), &ld); err == nil && IsValidChannelID(ld.Identifier.Value) {
			return ld.Identifier.Value, true
		}
	}

	return "", false
}
