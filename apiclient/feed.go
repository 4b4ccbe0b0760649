package apiclient

import (
	"context"
	"fmt"
	"sort"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/mmcdole/gofeed"
)

// feedExcerptLength bounds the excerpt built from a feed item description.
const feedExcerptLength = 300

// Feed fetches and parses an RSS or Atom feed, cached under FeedKey(feedURL)
// for Config.FeedTTL. Requests go through the client's retrying transport.
func (c *Client) Feed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	key := FeedKey(feedURL)
	v, err := c.store.Request(ctx, key, func(ctx context.Context) (any, error) {
		fp := gofeed.NewParser()
		fp.Client = c.http.StandardClient()
		fp.UserAgent = c.cfg.UserAgent

		feed, err := fp.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			return nil, platformerrors.WrapWithContext(err, platformerrors.CodeNetwork, "feed fetch failed", map[string]interface{}{
				"url": feedURL,
			})
		}
		return feed, nil
	}, c.cfg.FeedTTL)
	if err != nil {
		return nil, err
	}
	feed, ok := v.(*gofeed.Feed)
	if !ok {
		return nil, fmt.Errorf("apiclient: cached value for %q is %T, want *gofeed.Feed", key, v)
	}
	return feed, nil
}

// FeedNews converts feed items to news items, newest first. Items without
// a link are skipped.
func FeedNews(feed *gofeed.Feed, category string) []NewsItem {
	if feed == nil {
		return nil
	}
	out := make([]NewsItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		n := NewsItem{
			ID:       item.GUID,
			Title:    item.Title,
			Link:     item.Link,
			Category: category,
			Excerpt:  Excerpt(item.Description, feedExcerptLength),
		}
		if n.ID == "" {
			n.ID = item.Link
		}
		if item.Image != nil {
			n.ImageURL = item.Image.URL
		} else if src := FirstImage(item.Content); src != "" {
			n.ImageURL = src
		}
		if item.PublishedParsed != nil {
			n.PublishedAt = *item.PublishedParsed
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}
