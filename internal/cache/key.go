// Package cache implements the two-tier result cache that shields the
// upstream data provider: a bounded in-process LRU tier in front of a
// persisted TTL-governed store, a fetch orchestrator combining both with a
// compute fallback, and a paced startup warm-up.
package cache

import (
	"net/url"
	"strings"
)

// Encode derives the cache key for one logical request from the operation
// name and its ordered arguments. It is a pure function: identical inputs
// always produce identical keys. Each part is percent-escaped before joining
// so that distinct argument tuples can never collide (("a", "b/c") and
// ("a/b", "c") encode differently).
func Encode(op string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, url.PathEscape(op))
	for _, a := range args {
		parts = append(parts, url.PathEscape(a))
	}
	return strings.Join(parts, "/")
}

// Category returns the operation category of an encoded key: its first
// segment. Persistent store backends use it to namespace records (a
// subdirectory, bucket or key prefix per operation); it carries no
// correctness weight.
func Category(key string) string {
	if i := strings.IndexByte(key, '/'); i >= 0 {
		return key[:i]
	}
	return key
}
