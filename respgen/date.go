package respgen

import (
	"sync"
	"time"
)

// TimeFormat is the RFC 7231 IMF-fixdate layout used for Date headers.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// DateCache produces the RFC 7231 IMF-fixdate form of the Date header,
// rebuilding it only when the wall-clock second changes (spec.md §8: two
// responses generated in the same wall-clock second carry byte-identical
// Date headers). badu-http's chunk_writer.go stamps Date per response
// with time.Now()/appendTime; this caches that formatting across an
// entire second instead; grounded on the same RFC 1123 layout it used.
type DateCache struct {
	mu     sync.Mutex
	second int64
	value  []byte
}

// NewDateCache returns a cache with nothing computed yet.
func NewDateCache() *DateCache {
	return &DateCache{}
}

// Bytes returns the current Date header value, rebuilding the cached
// formatting if the wall-clock second has advanced since the last call.
func (c *DateCache) Bytes(now time.Time) []byte {
	sec := now.Unix()

	c.mu.Lock()
	defer c.mu.Unlock()
	if sec != c.second || c.value == nil {
		c.second = sec
		c.value = []byte(now.UTC().Format(TimeFormat))
	}
	return c.value
}
