package feeds_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memegram/feeds"
	"memegram/models"
	"memegram/reddit"
)

func serveFile(t *testing.T, path string) http.HandlerFunc {
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func newSource(host string, retries int) *feeds.Source {
	return feeds.NewSource(feeds.SourceConfig{
		Host:          host,
		Retries:       retries,
		RetryInterval: time.Millisecond,
		Timeout:       5 * time.Second,
	})
}

func TestFetchPageFiltersAndNormalizes(t *testing.T) {
	srv := httptest.NewServer(serveFile(t, "testdata/hot.json"))
	defer srv.Close()

	page, err := newSource(srv.URL, 0).FetchPage(context.Background(), nil)
	require.NoError(t, err)

	// Three static images survive; the video, the adult post and the link are dropped
	require.Len(t, page.Items, 3)
	assert.Equal(t, []string{"a1", "a2", "a3"}, []string{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})

	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "t3_page2", *page.NextCursor)

	first := page.Items[0]
	assert.Equal(t, models.FeedItem{
		ID:        "a1",
		Title:     "First",
		MediaURL:  "https://i.redd.it/a1.jpg",
		MediaKind: models.MediaImage,
		Author:    "alice",
		CreatedAt: time.Unix(1700000000, 0).UTC(),
		Likes:     1234,
		Comments:  56,
		Permalink: "https://reddit.com/r/memes/comments/a1/first/",
	}, first)

	assert.Equal(t, time.Unix(1700000100, int64(500*time.Millisecond)).UTC(), page.Items[1].CreatedAt)
}

func TestFetchPageQuery(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"data":{"after":null,"children":[]}}`))
	}))
	defer srv.Close()

	source := newSource(srv.URL, 0)

	_, err := source.FetchPage(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "/r/memes+dankmemes+wholesomememes/hot.json", got.URL.Path)
	assert.Equal(t, "25", got.URL.Query().Get("limit"))
	assert.False(t, got.URL.Query().Has("after"))
	assert.Equal(t, reddit.DefaultUserAgent, got.Header.Get("User-Agent"))

	cursor := "t3_abc"
	_, err = source.FetchPage(context.Background(), &cursor)
	require.NoError(t, err)
	assert.Equal(t, "t3_abc", got.URL.Query().Get("after"))
}

func TestFetchPageEndOfData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "null after", body: `{"data":{"after":null,"children":[]}}`},
		{name: "empty after", body: `{"data":{"after":"","children":[]}}`},
		{name: "missing after", body: `{"data":{"children":[]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			page, err := newSource(srv.URL, 0).FetchPage(context.Background(), nil)
			require.NoError(t, err)
			assert.NotNil(t, page.Items)
			assert.Empty(t, page.Items)
			assert.Nil(t, page.NextCursor)
			assert.False(t, page.HasMore())
		})
	}
}

func TestFetchPageErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			target: reddit.ErrUnexpectedStatus,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>blocked</html>`))
			},
			target: reddit.ErrMalformedListing,
		},
		{name: "empty object", handler: respond(`{}`), target: reddit.ErrMalformedListing},
		{name: "null document", handler: respond(`null`), target: reddit.ErrMalformedListing},
		{name: "null data", handler: respond(`{"data":null}`), target: reddit.ErrMalformedListing},
		{name: "data without children", handler: respond(`{"data":{"after":null}}`), target: reddit.ErrMalformedListing},
		{name: "error object", handler: respond(`{"message":"Forbidden","error":403}`), target: reddit.ErrMalformedListing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			page, err := newSource(srv.URL, 0).FetchPage(context.Background(), nil)
			assert.Nil(t, page)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestFetchPageOrEmptyAbsorbsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	page := newSource(srv.URL, 0).FetchPageOrEmpty(context.Background(), nil)
	require.NotNil(t, page)
	assert.Equal(t, []models.FeedItem{}, page.Items)
	assert.Nil(t, page.NextCursor)
}

func TestFetchPageOrEmptyUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	page := newSource(host, 0).FetchPageOrEmpty(context.Background(), nil)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.NextCursor)
}

func TestFetchPageRetries(t *testing.T) {
	t.Run("transient failures are retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"data":{"after":"t3_next","children":[]}}`))
		}))
		defer srv.Close()

		page, err := newSource(srv.URL, 2).FetchPage(context.Background(), nil)
		require.NoError(t, err)
		assert.True(t, page.HasMore())
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("permanent failures are not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := newSource(srv.URL, 3).FetchPage(context.Background(), nil)
		assert.ErrorIs(t, err, reddit.ErrUnexpectedStatus)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("no retries by default", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := newSource(srv.URL, 0).FetchPage(context.Background(), nil)
		assert.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestNormalizeClampsCounters(t *testing.T) {
	item := feeds.Normalize(reddit.Post{ID: "x", Ups: -3, NumComments: -1, Permalink: "/r/memes/comments/x/"})

	assert.Equal(t, 0, item.Likes)
	assert.Equal(t, 0, item.Comments)
	assert.Equal(t, "https://reddit.com/r/memes/comments/x/", item.Permalink)
}
