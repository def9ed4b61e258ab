package feeds

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"memegram/models"
	"memegram/reddit"
)

const permalinkHost = "https://reddit.com"

// Source queries the upstream listing and returns normalized pages
type Source struct {
	client        *reddit.Client
	subreddits    []string
	limit         int
	retries       int
	retryInterval time.Duration
	filters       []FilterStrategy
}

func NewSource(cfg SourceConfig) *Source {
	subreddits := cfg.Subreddits
	if len(subreddits) == 0 {
		subreddits = DefaultSubreddits
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	retryInterval := cfg.RetryInterval
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}

	filters := cfg.Filters
	if filters == nil {
		filters = DefaultFilters()
	}

	return &Source{
		client:        reddit.NewClient(cfg.Host, cfg.UserAgent, timeout),
		subreddits:    subreddits,
		limit:         limit,
		retries:       max(cfg.Retries, 0),
		retryInterval: retryInterval,
		filters:       filters,
	}
}

// FetchPage fetches the batch after cursor (nil for the first batch).
// Failures are returned as errors; an empty page with a nil cursor only ever
// means the listing is exhausted.
func (s *Source) FetchPage(ctx context.Context, cursor *string) (*models.Page, error) {
	start := time.Now()
	after := lo.FromPtr(cursor)

	var listing *reddit.Listing
	operation := func() error {
		l, err := s.client.Hot(ctx, s.subreddits, s.limit, after)
		if err != nil {
			if !retryable(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		listing = l
		return nil
	}

	err := backoff.RetryNotify(operation, s.newBackOff(ctx), func(err error, wait time.Duration) {
		log.WithFields(log.Fields{
			"after": after,
			"wait":  wait,
			"error": err,
		}).Warn("Upstream fetch failed, retrying")
	})
	fetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		fetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch page after %q: %w", after, err)
	}

	posts := listing.Posts()
	items := s.normalize(posts)

	page := &models.Page{
		Items:      items,
		NextCursor: nextCursor(listing),
	}

	outcome := "ok"
	if !page.HasMore() {
		outcome = "end"
	}
	fetchesTotal.WithLabelValues(outcome).Inc()
	itemsTotal.Add(float64(len(items)))

	log.WithFields(log.Fields{
		"after":   after,
		"records": len(posts),
		"items":   len(items),
		"next":    lo.FromPtr(page.NextCursor),
		"latency": time.Since(start),
	}).Info("Fetched feed page")

	return page, nil
}

// FetchPageOrEmpty keeps the lenient contract: any failure is logged and
// reported as the end of the feed.
func (s *Source) FetchPageOrEmpty(ctx context.Context, cursor *string) *models.Page {
	page, err := s.FetchPage(ctx, cursor)
	if err != nil {
		log.WithError(err).Error("Error fetching feed page")
		return models.EmptyPage()
	}
	return page
}

func (s *Source) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryInterval
	b.MaxInterval = 32 * s.retryInterval
	b.MaxElapsedTime = 0 // bounded by the retry count instead
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.retries)), ctx)
}

func (s *Source) normalize(posts []reddit.Post) []models.FeedItem {
	kept := lo.Filter(posts, func(post reddit.Post, _ int) bool {
		filter := rejectedBy(s.filters, post)
		if filter == nil {
			return true
		}
		recordsDropped.WithLabelValues(filter.Name()).Inc()
		log.WithFields(log.Fields{
			"id":     post.ID,
			"reason": filter.Name(),
		}).Debug("Dropping post")
		return false
	})

	return lo.Map(kept, func(post reddit.Post, _ int) models.FeedItem {
		return Normalize(post)
	})
}

// Normalize maps a raw post onto a feed item. Only static images pass the
// default filters, so the media kind is always image.
func Normalize(post reddit.Post) models.FeedItem {
	return models.FeedItem{
		ID:        post.ID,
		Title:     post.Title,
		MediaURL:  post.URL,
		MediaKind: models.MediaImage,
		Author:    post.Author,
		CreatedAt: fromEpoch(post.CreatedUTC),
		Likes:     max(post.Ups, 0),
		Comments:  max(post.NumComments, 0),
		Permalink: permalinkHost + post.Permalink,
	}
}

func fromEpoch(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
}

func nextCursor(listing *reddit.Listing) *string {
	if !listing.Valid() || listing.Data.After == nil || *listing.Data.After == "" {
		return nil
	}
	after := *listing.Data.After
	return &after
}

// retryable reports whether a failed request is worth another attempt
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, reddit.ErrMalformedListing) {
		return false
	}
	var statusErr *reddit.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}
