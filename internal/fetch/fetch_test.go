package fetch

import (
	"context"
	goerrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylehunt/catalogworker/pkg/errors"
)

type mapCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string][]byte)}
}

func (c *mapCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.items[key]; ok {
		return v, nil
	}
	return nil, goerrors.New("cache miss")
}

func (c *mapCache) Set(key string, value []byte, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *mapCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func TestFetchReturnsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>catalog page</body></html>"))
	}))
	defer server.Close()

	fetcher := NewPoliteFetcher(nil, false, time.Minute)
	body, err := fetcher.Fetch(context.Background(), server.URL+"/product/1")
	require.NoError(t, err)

	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(content), "catalog page")
}

func TestFetchHonorsRobotsDisallow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.Write([]byte("<html><body>page</body></html>"))
	}))
	defer server.Close()

	fetcher := NewPoliteFetcher(nil, true, time.Minute)

	_, err := fetcher.Fetch(context.Background(), server.URL+"/private/page")
	require.Error(t, err)
	var pipelineErr *errors.PipelineError
	require.True(t, goerrors.As(err, &pipelineErr))
	assert.Equal(t, errors.ErrorTypeRobots, pipelineErr.Type)
	assert.False(t, pipelineErr.IsRetryable())

	// Paths outside the disallowed prefix still fetch.
	_, err = fetcher.Fetch(context.Background(), server.URL+"/public/page")
	assert.NoError(t, err)
}

func TestFetchRateLimitBlocksHost(t *testing.T) {
	var requests int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cacheSvc := newMapCache()
	fetcher := NewPoliteFetcher(cacheSvc, false, time.Minute)

	_, err := fetcher.Fetch(context.Background(), server.URL+"/product/1")
	require.Error(t, err)
	var pipelineErr *errors.PipelineError
	require.True(t, goerrors.As(err, &pipelineErr))
	assert.Equal(t, errors.ErrorTypeRateLimit, pipelineErr.Type)
	assert.False(t, pipelineErr.IsRetryable())

	// The whole host is now blocked; the second fetch never reaches
	// the server.
	_, err = fetcher.Fetch(context.Background(), server.URL+"/product/2")
	require.Error(t, err)
	require.True(t, goerrors.As(err, &pipelineErr))
	assert.Equal(t, errors.ErrorTypeRateLimit, pipelineErr.Type)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, requests)
}

func TestFetchContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewPoliteFetcher(nil, false, time.Minute)
	_, err := fetcher.Fetch(ctx, "https://example.com/product/1")
	assert.Error(t, err)
}

func TestFetchRejectsUnparseableURL(t *testing.T) {
	fetcher := NewPoliteFetcher(nil, false, time.Minute)
	_, err := fetcher.Fetch(context.Background(), "not a url")
	assert.Error(t, err)
}
