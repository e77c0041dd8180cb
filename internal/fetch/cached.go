package fetch

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a fetched job ad stays fresh. Ads rarely
// change within a session, so re-runs against the same URL skip the
// network.
const DefaultCacheTTL = 24 * time.Hour

type cacheEntry struct {
	text      string
	fetchedAt time.Time
}

// CachedFetcher memoizes JobText results per URL with a TTL.
type CachedFetcher struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	options *Options
	now     func() time.Time
}

// NewCachedFetcher creates a caching fetcher. A zero ttl uses the default.
func NewCachedFetcher(ttl time.Duration, opts *Options) *CachedFetcher {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		options: opts,
		now:     time.Now,
	}
}

// JobText returns the posting text for the URL, fetching only when no
// fresh cached copy exists. Failures are never cached.
func (f *CachedFetcher) JobText(ctx context.Context, urlStr string) (string, bool, error) {
	f.mu.Lock()
	entry, ok := f.entries[urlStr]
	f.mu.Unlock()

	if ok && f.now().Sub(entry.fetchedAt) < f.ttl {
		return entry.text, true, nil
	}

	text, err := JobText(ctx, urlStr, f.options)
	if err != nil {
		return "", false, err
	}

	f.mu.Lock()
	f.entries[urlStr] = cacheEntry{text: text, fetchedAt: f.now()}
	f.mu.Unlock()
	return text, false, nil
}

// Invalidate drops the cached copy for a URL.
func (f *CachedFetcher) Invalidate(urlStr string) {
	f.mu.Lock()
	delete(f.entries, urlStr)
	f.mu.Unlock()
}
