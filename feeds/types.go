// Package feeds turns upstream listings into pages of normalized feed items
package feeds

import (
	"time"

	"memegram/reddit"
)

// Defaults for the upstream query
const (
	DefaultLimit         = 25
	DefaultTimeout       = 30 * time.Second
	DefaultRetryInterval = time.Second
)

// DefaultSubreddits are queried together as one combined listing
var DefaultSubreddits = []string{"memes", "dankmemes", "wholesomememes"}

// FilterStrategy decides whether a raw post makes it into the feed
type FilterStrategy interface {
	// Name labels the drop reason in metrics and logs
	Name() string
	// Keep returns false when the post should be dropped
	Keep(post reddit.Post) bool
}

// SourceConfig configures a Source. Zero values fall back to the defaults above.
type SourceConfig struct {
	Host       string
	UserAgent  string
	Subreddits []string
	Limit      int
	Timeout    time.Duration

	// Retries is the number of extra attempts for transient failures
	Retries       int
	RetryInterval time.Duration

	// Filters replaces DefaultFilters when non-nil
	Filters []FilterStrategy
}
