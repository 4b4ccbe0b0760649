package apiclient

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jonwraymond/clubcache/cache"
)

// Resource names a CMS collection. It is both the URL segment and the cache
// key prefix.
type Resource string

const (
	ResourceNews     Resource = "news"
	ResourceEvents   Resource = "events"
	ResourceSlides   Resource = "slides"
	ResourcePages    Resource = "pages"
	ResourceMedia    Resource = "media"
	ResourceUsers    Resource = "users"
	ResourceSettings Resource = "settings"
)

// Resources lists every collection the admin API accepts.
var Resources = []Resource{
	ResourceNews, ResourceEvents, ResourceSlides, ResourcePages,
	ResourceMedia, ResourceUsers, ResourceSettings,
}

// Valid reports whether r is a known collection.
func (r Resource) Valid() bool {
	return slices.Contains(Resources, r)
}

// WeatherKey caches the marina weather report.
const WeatherKey = "weather"

// ListKey is the key of the unfiltered listing of r.
func ListKey(r Resource) string { return string(r) + "-all" }

// FilteredListKey is the key of a listing of r narrowed by params. Empty
// params yield ListKey(r).
func FilteredListKey(r Resource, params map[string]any) string {
	return cache.BuildKey(ListKey(r), params)
}

// ItemKey is the key of one item of r. IDs for which ValidateItemID fails
// would share a key with a listing or slug lookup.
func ItemKey(r Resource, id string) string { return string(r) + "-" + id }

// ValidateItemID rejects IDs whose ItemKey collides with another key shape:
// empty, "all" and filtered listings ("all?..."), and "slug-..." lookups.
func ValidateItemID(id string) error {
	switch {
	case id == "", id == "all", strings.HasPrefix(id, "all?"), strings.HasPrefix(id, "slug-"):
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// SlugKey is the key of one item of r looked up by slug.
func SlugKey(r Resource, slug string) string { return string(r) + "-slug-" + slug }

// FeedKey is the key of an external feed.
func FeedKey(feedURL string) string {
	return cache.BuildKey("feed", map[string]any{"url": feedURL})
}
