package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jonwraymond/clubcache/observe"
)

func adminPath(r Resource, id string) string {
	if id == "" {
		return "admin/" + string(r)
	}
	return "admin/" + string(r) + "/" + url.PathEscape(id)
}

func (c *Client) admin(ctx context.Context, r Resource, method, id string, body, out any) error {
	if !r.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownResource, r)
	}
	token, err := c.sessionToken()
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method: method,
		path:   adminPath(r, id),
		body:   body,
		token:  token,
	}, out)
}

// List reads the admin view of a collection. It bypasses the cache, since
// the admin view includes unpublished items.
func (c *Client) List(ctx context.Context, r Resource, out any) error {
	return c.admin(ctx, r, http.MethodGet, "", nil, out)
}

// Create adds an item to r and decodes the created item into out.
func (c *Client) Create(ctx context.Context, r Resource, item, out any) error {
	if err := c.admin(ctx, r, http.MethodPost, "", item, out); err != nil {
		return err
	}
	c.invalidate(ctx, r, "")
	return nil
}

// Update replaces item id of r and decodes the stored item into out.
func (c *Client) Update(ctx context.Context, r Resource, id string, item, out any) error {
	if err := c.admin(ctx, r, http.MethodPut, id, item, out); err != nil {
		return err
	}
	c.invalidate(ctx, r, id)
	return nil
}

// Delete removes item id of r.
func (c *Client) Delete(ctx context.Context, r Resource, id string) error {
	if err := c.admin(ctx, r, http.MethodDelete, id, nil, nil); err != nil {
		return err
	}
	c.invalidate(ctx, r, id)
	return nil
}

// invalidate drops every cached key of r after a successful mutation: the
// listing, filtered listings, pages of paged listings, the item and slug
// lookups. Slugs are not known from an ID, so the whole prefix goes.
func (c *Client) invalidate(ctx context.Context, r Resource, id string) {
	c.store.Invalidate(ListKey(r))
	if id != "" {
		c.store.Invalidate(ItemKey(r, id))
	}
	removed := c.store.InvalidatePrefix(string(r) + "-")
	c.logger.Debug(ctx, "resource cache invalidated",
		observe.F("resource", string(r)),
		observe.F("id", id),
		observe.F("removed", removed),
	)
}
