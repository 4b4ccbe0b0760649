package query

import "errors"

// ErrTypeMismatch is reported when a cached value is not of the query's type.
// It usually means two consumers use the same key for different resources.
var ErrTypeMismatch = errors.New("query: cached value has unexpected type")

// DefaultPageSize is used when PagedOptions.PageSize is zero.
const DefaultPageSize = 10
