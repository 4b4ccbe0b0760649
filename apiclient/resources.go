package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// NewsItem is a club news article.
type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Content     string    `json:"content,omitempty"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Link        string    `json:"link,omitempty"`
	Featured    bool      `json:"featured,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Event is a calendar entry such as a regatta or a social evening.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Category    string    `json:"category,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at,omitempty"`
}

// Slide is one hero carousel or TV display slide.
type Slide struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url,omitempty"`
	Position int    `json:"position"`
	Active   bool   `json:"active"`
}

// Page is a static CMS page.
type Page struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Weather is the marina weather report.
type Weather struct {
	Location      string    `json:"location"`
	TemperatureC  float64   `json:"temperature_c"`
	WindSpeedKn   float64   `json:"wind_speed_kn"`
	WindGustKn    float64   `json:"wind_gust_kn,omitempty"`
	WindDirection string    `json:"wind_direction"`
	Conditions    string    `json:"conditions"`
	ObservedAt    time.Time `json:"observed_at"`
}

// Settings holds site-wide configuration managed in the admin panel.
type Settings struct {
	ClubName     string            `json:"club_name"`
	ContactEmail string            `json:"contact_email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	Address      string            `json:"address,omitempty"`
	Social       map[string]string `json:"social,omitempty"`
}

// ListOptions narrows a listing. Zero fields are not sent.
type ListOptions struct {
	Category string
	Page     int
	Limit    int
}

func (o ListOptions) params() map[string]any {
	p := map[string]any{}
	if o.Category != "" {
		p["category"] = o.Category
	}
	if o.Page > 0 {
		p["page"] = o.Page
	}
	if o.Limit > 0 {
		p["limit"] = o.Limit
	}
	return p
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Category != "" {
		v.Set("category", o.Category)
	}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	return v
}

// cachedGet reads path through the store under key.
func cachedGet[T any](ctx context.Context, c *Client, key, path string, query url.Values, ttl time.Duration) (T, error) {
	var zero T
	v, err := c.store.Request(ctx, key, func(ctx context.Context) (any, error) {
		var out T
		if err := c.do(ctx, request{method: http.MethodGet, path: path, query: query}, &out); err != nil {
			return nil, err
		}
		return out, nil
	}, ttl)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("apiclient: cached value for %q is %T, want %T", key, v, zero)
	}
	return out, nil
}

// News lists news articles.
func (c *Client) News(ctx context.Context, opts ListOptions) ([]NewsItem, error) {
	return cachedGet[[]NewsItem](ctx, c, FilteredListKey(ResourceNews, opts.params()), "news", opts.values(), 0)
}

// NewsItem returns one article by ID.
func (c *Client) NewsItem(ctx context.Context, id string) (NewsItem, error) {
	if err := ValidateItemID(id); err != nil {
		return NewsItem{}, err
	}
	return cachedGet[NewsItem](ctx, c, ItemKey(ResourceNews, id), "news/"+url.PathEscape(id), nil, 0)
}

// NewsBySlug returns one article by slug.
func (c *Client) NewsBySlug(ctx context.Context, slug string) (NewsItem, error) {
	return cachedGet[NewsItem](ctx, c, SlugKey(ResourceNews, slug), "news/slug/"+url.PathEscape(slug), nil, 0)
}

// NewsFetcher returns a page fetcher for query.NewPaged over news listings.
func (c *Client) NewsFetcher(opts ListOptions) func(ctx context.Context, page int) ([]NewsItem, error) {
	return func(ctx context.Context, page int) ([]NewsItem, error) {
		o := opts
		o.Page = page
		var out []NewsItem
		err := c.do(ctx, request{method: http.MethodGet, path: "news", query: o.values()}, &out)
		return out, err
	}
}

// Events lists calendar events.
func (c *Client) Events(ctx context.Context, opts ListOptions) ([]Event, error) {
	return cachedGet[[]Event](ctx, c, FilteredListKey(ResourceEvents, opts.params()), "events", opts.values(), 0)
}

// Event returns one event by ID.
func (c *Client) Event(ctx context.Context, id string) (Event, error) {
	if err := ValidateItemID(id); err != nil {
		return Event{}, err
	}
	return cachedGet[Event](ctx, c, ItemKey(ResourceEvents, id), "events/"+url.PathEscape(id), nil, 0)
}

// Slides lists carousel slides.
func (c *Client) Slides(ctx context.Context) ([]Slide, error) {
	return cachedGet[[]Slide](ctx, c, ListKey(ResourceSlides), "slides", nil, 0)
}

// Page returns a static page by slug.
func (c *Client) Page(ctx context.Context, slug string) (Page, error) {
	return cachedGet[Page](ctx, c, SlugKey(ResourcePages, slug), "pages/"+url.PathEscape(slug), nil, 0)
}

// Weather returns the marina weather report, cached for Config.WeatherTTL.
func (c *Client) Weather(ctx context.Context) (Weather, error) {
	return cachedGet[Weather](ctx, c, WeatherKey, "weather", nil, c.cfg.WeatherTTL)
}

// Settings returns the site settings.
func (c *Client) Settings(ctx context.Context) (Settings, error) {
	return cachedGet[Settings](ctx, c, ListKey(ResourceSettings), "settings", nil, 0)
}
