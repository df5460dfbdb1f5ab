package fetch

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"stylehunt/catalogworker/helpers"
	"stylehunt/catalogworker/logger"
	"stylehunt/catalogworker/pkg/errors"
	"stylehunt/catalogworker/services/cache"
)

const userAgentToken = "catalogworker"

// PoliteFetcher fetches pages with the politeness controls the crawl
// engine relies on: a per-host rate-limit block held in the shared
// cache, and a robots.txt check per host.
type PoliteFetcher struct {
	cacheSvc      cache.CacheService
	respectRobots bool
	blockTime     time.Duration

	mu     sync.Mutex
	robots map[string]*robotstxt.RobotsData
}

// NewPoliteFetcher creates a fetcher. cacheSvc may be nil, in which
// case rate-limit blocks only last as long as the process.
func NewPoliteFetcher(cacheSvc cache.CacheService, respectRobots bool, blockTime time.Duration) *PoliteFetcher {
	return &PoliteFetcher{
		cacheSvc:      cacheSvc,
		respectRobots: respectRobots,
		blockTime:     blockTime,
		robots:        make(map[string]*robotstxt.RobotsData),
	}
}

// Fetch retrieves one page as UTF-8. Rate limiting by the target site
// blocks the whole host for blockTime; robots.txt denial drops the URL
// without retry.
func (f *PoliteFetcher) Fetch(ctx context.Context, rawURL string) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewFetch("", "context done before fetch", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, errors.NewFetch("", fmt.Sprintf("unparseable url: %s", rawURL), err)
	}
	host := u.Host

	// Host currently blocked after an upstream 429.
	if f.cacheSvc != nil {
		if _, err := f.cacheSvc.Get(blockKey(host)); err == nil {
			return nil, errors.NewRateLimit(host, f.blockTime)
		}
	}

	if f.respectRobots && !f.allowed(u) {
		return nil, errors.NewRobots(host, rawURL)
	}

	body, err := helpers.FetchWithRandomHeaders(rawURL)
	if err != nil {
		if goerrors.Is(err, helpers.ErrRateLimited) {
			if f.cacheSvc != nil {
				cacheErr := f.cacheSvc.Set(blockKey(host), []byte(fmt.Sprintf("%d", int(f.blockTime.Seconds()))), f.blockTime)
				if cacheErr != nil {
					logger.Warn("Failed to set rate-limit block for %s: %v", host, cacheErr)
				}
			}
			return nil, errors.NewRateLimit(host, f.blockTime)
		}
		return nil, errors.NewFetch(host, fmt.Sprintf("fetch %s", rawURL), err)
	}

	return body, nil
}

// allowed consults the host's robots.txt, fetched once per host per
// process lifetime. A robots.txt that cannot be fetched or parsed
// allows everything.
func (f *PoliteFetcher) allowed(u *url.URL) bool {
	f.mu.Lock()
	data, ok := f.robots[u.Host]
	f.mu.Unlock()

	if !ok {
		robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
		raw, err := helpers.FetchSimply(robotsURL)
		if err == nil {
			if parsed, parseErr := robotstxt.FromBytes(raw); parseErr == nil {
				data = parsed
			}
		}
		f.mu.Lock()
		f.robots[u.Host] = data
		f.mu.Unlock()
	}

	if data == nil {
		return true
	}
	return data.TestAgent(u.RequestURI(), userAgentToken)
}

func blockKey(host string) string {
	return "ratelimit:" + host
}
