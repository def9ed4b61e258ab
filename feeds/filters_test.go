package feeds_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"memegram/feeds"
	"memegram/reddit"
)

func TestImageExtensionFilter(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{name: "jpg", url: "https://i.redd.it/x.jpg", expected: true},
		{name: "jpeg", url: "https://i.redd.it/x.jpeg", expected: true},
		{name: "png upper case", url: "https://i.redd.it/x.PNG", expected: true},
		{name: "gif", url: "https://i.imgur.com/x.gif", expected: true},
		{name: "video", url: "https://v.redd.it/abc", expected: false},
		{name: "gifv", url: "https://i.imgur.com/x.gifv", expected: false},
		{name: "webp", url: "https://i.redd.it/x.webp", expected: false},
		{name: "query string after extension", url: "https://preview.redd.it/x.jpg?width=640", expected: false},
		{name: "external article", url: "https://example.com/news", expected: false},
		{name: "empty", url: "", expected: false},
	}

	filter := &feeds.ImageExtensionFilter{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, filter.Keep(reddit.Post{URL: tt.url}))
		})
	}
}

func TestSafeContentFilter(t *testing.T) {
	filter := &feeds.SafeContentFilter{}

	assert.True(t, filter.Keep(reddit.Post{Over18: false}))
	assert.False(t, filter.Keep(reddit.Post{Over18: true}))
}
