package feeds

import (
	"regexp"

	"memegram/reddit"
)

var imageExtension = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif)$`)

// ImageExtensionFilter keeps posts linking straight to a static image.
// The whole URL must end in the extension, so links with query strings are dropped.
type ImageExtensionFilter struct{}

func (f *ImageExtensionFilter) Name() string {
	return "not_image"
}

func (f *ImageExtensionFilter) Keep(post reddit.Post) bool {
	return imageExtension.MatchString(post.URL)
}

// SafeContentFilter drops posts flagged as adult content
type SafeContentFilter struct{}

func (f *SafeContentFilter) Name() string {
	return "nsfw"
}

func (f *SafeContentFilter) Keep(post reddit.Post) bool {
	return !post.Over18
}

// DefaultFilters is the filter chain used when none is configured
func DefaultFilters() []FilterStrategy {
	return []FilterStrategy{
		&ImageExtensionFilter{},
		&SafeContentFilter{},
	}
}

// rejectedBy returns the first filter that drops the post, or nil when all keep it
func rejectedBy(filters []FilterStrategy, post reddit.Post) FilterStrategy {
	for _, filter := range filters {
		if !filter.Keep(post) {
			return filter
		}
	}
	return nil
}

var _ FilterStrategy = (*ImageExtensionFilter)(nil)
var _ FilterStrategy = (*SafeContentFilter)(nil)
