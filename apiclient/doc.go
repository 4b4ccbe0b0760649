// Package apiclient is the club CMS REST client.
//
// Public reads (news, events, slides, pages, weather, settings) go through a
// shared cache.Store, so every consumer of the same resource shares one
// request and one cached value. Admin mutations are never cached; on success
// they invalidate the keys of the resource they touched.
//
// Key conventions:
//
//	<resource>-all             full listing
//	<resource>-all?k=v         filtered listing (cache.BuildKey)
//	<resource>-<id>            single item
//	<resource>-slug-<slug>     item by slug
//
// Non-2xx responses are returned as github.com/jmgilman/go/errors platform
// errors, so callers branch on errors.GetCode rather than on status codes.
package apiclient
