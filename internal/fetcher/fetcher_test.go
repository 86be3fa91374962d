package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_Success(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte("<feed>ok</feed>"))
	}))
	defer server.Close()

	f := New(5 * time.Second)
	body, err := f.Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "<feed>ok</feed>", body)
	assert.Equal(t, defaultUserAgent, gotUserAgent)
}

func TestFetch_CustomUserAgent(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	f := New(5*time.Second, WithUserAgent("test-agent/1.0"))
	_, err := f.Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "test-agent/1.0", gotUserAgent)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		f := New(5 * time.Second)
		body, err := f.Fetch(context.Background(), server.URL)
		server.Close()

		require.Error(t, err)
		assert.Empty(t, body)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, status, fetchErr.StatusCode)
		assert.Equal(t, server.URL, fetchErr.URL)
	}
}

type failingClient struct {
	err error
}

func (c *failingClient) Do(*http.Request) (*http.Response, error) {
	return nil, c.err
}

func TestFetch_NetworkError(t *testing.T) {
	netErr := errors.New("connection refused")
	f := New(5*time.Second, WithHTTPClient(&failingClient{err: netErr}))

	_, err := f.Fetch(context.Background(), "https://www.youtube.com/feeds/videos.xml?channel_id=UCx")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Zero(t, fetchErr.StatusCode)
	assert.ErrorIs(t, err, netErr)
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := New(5 * time.Second)
	_, err := f.Fetch(ctx, server.URL)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetch_InvalidURL(t *testing.T) {
	f := New(5 * time.Second)
	_, err := f.Fetch(context.Background(), "://not-a-url")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
}
