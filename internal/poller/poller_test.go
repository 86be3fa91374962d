package poller

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/models"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/db/repository"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/metrics"
	"github.com/tubefeed/youtube-rss-ingestion-go/internal/youtube"
)

const (
	channelOne = "UCaaaaaaaaaaaaaaaaaaaaaa"
	channelTwo = "UCbbbbbbbbbbbbbbbbbbbbbb"
)

// fakeChannelRepo is an in-memory ChannelRepository for orchestrator tests.
type fakeChannelRepo struct {
	channels   []*models.Channel
	listErr    error
	lastPolled map[uuid.UUID]time.Time
	polledErr  map[uuid.UUID]error
}

func newFakeChannelRepo(channels ...*models.Channel) *fakeChannelRepo {
	return &fakeChannelRepo{
		channels:   channels,
		lastPolled: make(map[uuid.UUID]time.Time),
		polledErr:  make(map[uuid.UUID]error),
	}
}

func (f *fakeChannelRepo) Create(ctx context.Context, channel *models.Channel) error { return nil }
func (f *fakeChannelRepo) Update(ctx context.Context, channel *models.Channel) error { return nil }

func (f *fakeChannelRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	for _, c := range f.channels {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeChannelRepo) GetByChannelID(ctx context.Context, channelID string) (*models.Channel, error) {
	for _, c := range f.channels {
		if c.ChannelID == channelID {
			return c, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeChannelRepo) List(ctx context.Context, activeOnly bool) ([]*models.Channel, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Channel
	for _, c := range f.channels {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeChannelRepo) SetLastPolled(ctx context.Context, id uuid.UUID, polledAt time.Time) error {
	if err := f.polledErr[id]; err != nil {
		return err
	}
	f.lastPolled[id] = polledAt
	return nil
}

// fakeVideoRepo is an in-memory VideoRepository keyed on the external video id.
type fakeVideoRepo struct {
	videos     map[string]*models.Video
	upsertErr  map[string]error
	lookupErr  map[string]error
	upsertSeen []string
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{
		videos:    make(map[string]*models.Video),
		upsertErr: make(map[string]error),
		lookupErr: make(map[string]error),
	}
}

func (f *fakeVideoRepo) Upsert(ctx context.Context, video *models.Video) error {
	if err := f.upsertErr[video.YouTubeVideoID]; err != nil {
		return err
	}
	f.upsertSeen = append(f.upsertSeen, video.YouTubeVideoID)
	if existing, ok := f.videos[video.YouTubeVideoID]; ok {
		video.ID = existing.ID
		video.CreatedAt = existing.CreatedAt
	}
	stored := *video
	f.videos[video.YouTubeVideoID] = &stored
	return nil
}

func (f *fakeVideoRepo) GetByYouTubeID(ctx context.Context, youtubeVideoID string) (*models.Video, error) {
	if err := f.lookupErr[youtubeVideoID]; err != nil {
		return nil, err
	}
	if v, ok := f.videos[youtubeVideoID]; ok {
		copied := *v
		return &copied, nil
	}
	return nil, db.ErrNotFound
}

func (f *fakeVideoRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	for _, v := range f.videos {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeVideoRepo) List(ctx context.Context, filters repository.VideoFilters) ([]*models.Video, error) {
	return nil, nil
}

func (f *fakeVideoRepo) Search(ctx context.Context, query string, limit int) ([]*models.Video, error) {
	return nil, nil
}

func (f *fakeVideoRepo) ToggleHidden(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	return nil, db.ErrNotFound
}

func (f *fakeVideoRepo) ToggleShort(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	return nil, db.ErrNotFound
}

// fakeFetcher serves canned feed documents by feed URL.
type fakeFetcher struct {
	bodies map[string]string
	errs   map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	if err := f.errs[feedURL]; err != nil {
		return "", err
	}
	if body, ok := f.bodies[feedURL]; ok {
		return body, nil
	}
	return "", fmt.Errorf("unexpected fetch of %s", feedURL)
}

func feedDocument(entries ...string) string {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015"
      xmlns:media="http://search.yahoo.com/mrss/"
      xmlns="http://www.w3.org/2005/Atom">`
	for _, e := range entries {
		doc += e
	}
	return doc + "</feed>"
}

func feedEntry(videoID, title string) string {
	return fmt.Sprintf(`
  <entry>
    <yt:videoId>%s</yt:videoId>
    <title>%s</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=%s"/>
    <published>2024-01-01T00:00:00Z</published>
    <author><name>Channel Author</name></author>
  </entry>`, videoID, title, videoID)
}

func testChannel(channelID string) *models.Channel {
	return models.NewChannel(channelID, youtube.FeedURL(channelID), nil)
}

func newTestPoller(channels *fakeChannelRepo, videos *fakeVideoRepo, fetch *fakeFetcher) *Poller {
	return New(channels, videos, fetch, metrics.New(prometheus.NewRegistry()))
}

func TestRun_NewVideosAdded(t *testing.T) {
	channel := testChannel(channelOne)
	channels := newFakeChannelRepo(channel)
	videos := newFakeVideoRepo()
	fetch := &fakeFetcher{bodies: map[string]string{
		youtube.FeedURL(channelOne): feedDocument(
			feedEntry("abcDEF12345", "Regular Video"),
			feedEntry("abcDEF12346", "Intro #shorts"),
		),
	}}

	result, err := newTestPoller(channels, videos, fetch).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ChannelsProcessed)
	assert.Equal(t, 2, result.VideosAdded)
	assert.Equal(t, 0, result.VideosUpdated)
	assert.Empty(t, result.Errors)
	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.False(t, result.CompletedAt.IsZero())

	regular := videos.videos["abcDEF12345"]
	require.NotNil(t, regular)
	assert.False(t, regular.IsShort)
	assert.False(t, regular.IsHidden)
	require.NotNil(t, regular.ChannelID)
	assert.Equal(t, channel.ID, *regular.ChannelID)

	short := videos.videos["abcDEF12346"]
	require.NotNil(t, short)
	assert.True(t, short.IsShort)
	assert.False(t, short.IsHidden)

	assert.False(t, channels.lastPolled[channel.ID].IsZero())
}

func TestRun_SecondPollCountsUpdates(t *testing.T) {
	channel := testChannel(channelOne)
	channels := newFakeChannelRepo(channel)
	videos := newFakeVideoRepo()
	fetch := &fakeFetcher{bodies: map[string]string{
		youtube.FeedURL(channelOne): feedDocument(feedEntry("abcDEF12345", "Video")),
	}}
	p := newTestPoller(channels, videos, fetch)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.VideosAdded)

	stored := videos.videos["abcDEF12345"]
	id, createdAt := stored.ID, stored.CreatedAt

	second, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.VideosAdded)
	assert.Equal(t, 1, second.VideosUpdated)

	// Identity is stable across re-polls.
	assert.Equal(t, id, videos.videos["abcDEF12345"].ID)
	assert.Equal(t, createdAt, videos.videos["abcDEF12345"].CreatedAt)
}

func TestRun_PreservesHiddenFlag(t *testing.T) {
	channel := testChannel(channelOne)
	channels := newFakeChannelRepo(channel)
	videos := newFakeVideoRepo()
	fetch := &fakeFetcher{bodies: map[string]string{
		youtube.FeedURL(channelOne): feedDocument(feedEntry("abcDEF12345", "Video")),
	}}
	p := newTestPoller(channels, videos, fetch)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	// User hides the video between polls.
	videos.videos["abcDEF12345"].IsHidden = true

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.VideosUpdated)
	assert.True(t, videos.videos["abcDEF12345"].IsHidden)
}

func TestRun_ChannelFailureIsIsolated(t *testing.T) {
	broken := testChannel(channelOne)
	healthy := testChannel(channelTwo)
	channels := newFakeChannelRepo(broken, healthy)
	videos := newFakeVideoRepo()
	fetch := &fakeFetcher{
		bodies: map[string]string{
			youtube.FeedURL(channelTwo): feedDocument(
				feedEntry("abcDEF12346", "First Video"),
				feedEntry("abcDEF12347", "Second Video"),
			),
		},
		errs: map[string]error{
			youtube.FeedURL(channelOne): errors.New("connection refused"),
		},
	}

	result, err := newTestPoller(channels, videos, fetch).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.ChannelsProcessed)
	assert.Equal(t, 2, result.VideosAdded)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], broken.ChannelID)

	// Only the healthy channel advances.
	assert.False(t, channels.lastPolled[healthy.ID].IsZero())
	_, polled := channels.lastPolled[broken.ID]
	assert.False(t, polled)
}

func TestRun_InvalidFeedAddressSkipsChannel(t *testing.T) {
	channel := models.NewChannel(channelOne, "https://www.youtube.com/@somehandle", nil)
	channels := newFakeChannelRepo(channel)
	videos := newFakeVideoRepo()
	fetch := &fakeFetcher{}

	result, err := newTestPoller(channels, videos, fetch).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.ChannelsProcessed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "invalid feed address")
	assert.Empty(t, videos.upsertSeen)
}

func TestRun_UnparsableFeedSkipsChannel(t *testing.T) {
	channel := testChannel(channelOne)
	channels := newFakeChannelRepo(channel)
	videos := newFakeVideoRepo()
	fetch := &fakeFetcher{bodies: map[string]string{
		youtube.FeedURL(channelOne): "<html>not a feed",
	}}

	result, err := newTestPoller(channels, videos, fetch).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.ChannelsProcessed)
	require.Len(t, result.Errors, 1)
	_, polled := channels.lastPolled[channel.ID]
	assert.False(t, polled)
}

func TestRun_EntryFailureDoesNotAbortBatch(t *testing.T) {
	channel := testChannel(channelOne)
	channels := newFakeChannelRepo(channel)
	videos := newFakeVideoRepo()
	videos.upsertErr["abcDEF12345"] = errors.New("insert failed")
	fetch := &fakeFetcher{bodies: map[string]string{
		youtube.FeedURL(channelOne): feedDocument(
			feedEntry("abcDEF12345", "Failing Video"),
			feedEntry("abcDEF12346", "Surviving Video"),
		),
	}}

	result, err := newTestPoller(channels, videos, fetch).Run(context.Background())
	require.NoError(t, err)

	// The channel still counts as processed and last_polled_at advances.
	assert.Equal(t, 1, result.ChannelsProcessed)
	assert.Equal(t, 1, result.VideosAdded)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "abcDEF12345")
	assert.False(t, channels.lastPolled[channel.ID].IsZero())
}

func TestRun_SetLastPolledFailureRecorded(t *testing.T) {
	channel := testChannel(channelOne)
	channels := newFakeChannelRepo(channel)
	channels.polledErr[channel.ID] = errors.New("write failed")
	videos := newFakeVideoRepo()
	fetch := &fakeFetcher{bodies: map[string]string{
		youtube.FeedURL(channelOne): feedDocument(feedEntry("abcDEF12345", "Video")),
	}}

	result, err := newTestPoller(channels, videos, fetch).Run(context.Background())
	require.NoError(t, err)

	// Videos land, but the channel does not get processed credit.
	assert.Equal(t, 0, result.ChannelsProcessed)
	assert.Equal(t, 1, result.VideosAdded)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "update last polled")
}

func TestRun_InactiveChannelsSkipped(t *testing.T) {
	inactive := testChannel(channelOne)
	inactive.IsActive = false
	channels := newFakeChannelRepo(inactive)
	videos := newFakeVideoRepo()
	fetch := &fakeFetcher{}

	result, err := newTestPoller(channels, videos, fetch).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.ChannelsProcessed)
	assert.Empty(t, result.Errors)
}

func TestRun_ChannelListFailure(t *testing.T) {
	channels := newFakeChannelRepo()
	channels.listErr = errors.New("db down")

	result, err := newTestPoller(channels, newFakeVideoRepo(), &fakeFetcher{}).Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, result)
}
