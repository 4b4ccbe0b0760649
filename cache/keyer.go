package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Keyer derives cache keys from a request path and its parameters.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(path string, params map[string]any) (string, error)
}

// BuildKey encodes path and params as path?k1=v1&k2=v2 with parameter names
// sorted, so equal parameter sets yield equal keys. Nil values are skipped;
// other values are formatted with fmt and query-escaped.
func BuildKey(path string, params map[string]any) string {
	names := make([]string, 0, len(params))
	for name, v := range params {
		if v == nil {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return path
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(path)
	b.WriteByte('?')
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fmt.Sprint(params[name])))
	}
	return b.String()
}

// QueryKeyer is the Keyer behind BuildKey.
type QueryKeyer struct{}

// Key implements Keyer.
func (QueryKeyer) Key(path string, params map[string]any) (string, error) {
	key := BuildKey(path, params)
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// HashKeyer produces fixed-length keys for parameter sets too large for a
// readable query string. Format: <path>:<first 16 hex chars of SHA-256(canonical JSON)>.
type HashKeyer struct{}

// Key implements Keyer.
func (HashKeyer) Key(path string, params map[string]any) (string, error) {
	canonical, err := canonicalize(params)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize params: %w", err)
	}
	sum := sha256.Sum256(canonical)
	key := path + ":" + hex.EncodeToString(sum[:8])
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// canonicalize produces JSON with object keys sorted at every level.
func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		names := make([]string, 0, len(val))
		for k := range val {
			names = append(names, k)
		}
		sort.Strings(names)

		out := []byte{'{'}
		for i, k := range names {
			if i > 0 {
				out = append(out, ',')
			}
			name, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			elem, err := canonicalize(val[k])
			if err != nil {
				return nil, err
			}
			out = append(out, name...)
			out = append(out, ':')
			out = append(out, elem...)
		}
		return append(out, '}'), nil
	case []any:
		out := []byte{'['}
		for i, e := range val {
			if i > 0 {
				out = append(out, ',')
			}
			elem, err := canonicalize(e)
			if err != nil {
				return nil, err
			}
			out = append(out, elem...)
		}
		return append(out, ']'), nil
	default:
		return json.Marshal(v)
	}
}

var (
	_ Keyer = QueryKeyer{}
	_ Keyer = HashKeyer{}
)
