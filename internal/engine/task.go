package engine

import (
	"context"
	"io"
	"time"

	"stylehunt/catalogworker/internal/catalog"
	"stylehunt/catalogworker/internal/source"
)

// Fetcher retrieves one page body. The production implementation is
// fetch.PoliteFetcher; tests inject their own.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (io.Reader, error)
}

// Task is one unit of crawl work. Immutable once enqueued and consumed
// exactly once; the engine dedups by canonicalized URL before
// enqueueing.
type Task struct {
	URL        string
	Kind       source.PageKind
	SourceID   string
	PageDepth  int
	Gender     string
	Category   string
	ParentSeed string
	Attempts   int
}

// Params parameterizes one crawl run. Zero values fall back to the
// engine defaults.
type Params struct {
	Seeds              []source.Seed
	MaxListPages       int
	MaxProductsPerSeed int
	Concurrency        int
	MaxRetries         int
	RetryDelay         time.Duration
	Debug              bool
}

func (p *Params) withDefaults() Params {
	out := *p
	if out.MaxListPages < 1 {
		out.MaxListPages = 1
	}
	if out.MaxProductsPerSeed < 1 {
		out.MaxProductsPerSeed = 100
	}
	if out.Concurrency < 1 {
		out.Concurrency = 1
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = 200 * time.Millisecond
	}
	return out
}

// Summary is the operator-visible result of one run.
type Summary struct {
	Source      string
	Products    []catalog.Product
	Inserted    int
	Updated     int
	Unchanged   int
	Skipped     int
	Errored     int
	TasksFailed int
	ListPages   int
	DetailPages int
	SkipReasons map[string]int
	Duration    time.Duration
}

// TopSkipReasons returns up to n of the most frequent skip reasons.
func (s *Summary) TopSkipReasons(n int) []string {
	type reasonCount struct {
		reason string
		count  int
	}
	var reasons []reasonCount
	for reason, count := range s.SkipReasons {
		reasons = append(reasons, reasonCount{reason, count})
	}
	// Small map; insertion sort is plenty.
	for i := 1; i < len(reasons); i++ {
		for j := i; j > 0 && reasons[j].count > reasons[j-1].count; j-- {
			reasons[j], reasons[j-1] = reasons[j-1], reasons[j]
		}
	}
	if n > len(reasons) {
		n = len(reasons)
	}
	out := make([]string, 0, n)
	for _, rc := range reasons[:n] {
		out = append(out, rc.reason)
	}
	return out
}
