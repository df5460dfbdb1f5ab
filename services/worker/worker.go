package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"stylehunt/catalogworker/internal/engine"
	"stylehunt/catalogworker/logger"
	"stylehunt/catalogworker/services/publisher"
)

// CrawlRunner is one source's crawl entry point. The production
// implementation is engine.Engine; tests inject their own.
type CrawlRunner interface {
	Run(ctx context.Context, params engine.Params) (*engine.Summary, error)
}

// Worker drives the periodic crawl cycle: every interval it runs all
// sources in parallel, publishes the resulting catalog updates and
// trims the streams.
type Worker struct {
	ctx      context.Context
	runners  []CrawlRunner
	pub      publisher.Publisher
	log      *logger.Logger
	interval time.Duration
	params   engine.Params
}

// NewWorker creates a worker. pub may be nil when no downstream
// consumers are configured.
func NewWorker(
	ctx context.Context,
	runners []CrawlRunner,
	pub publisher.Publisher,
	interval time.Duration,
	params engine.Params,
) *Worker {
	return &Worker{
		ctx:      ctx,
		runners:  runners,
		pub:      pub,
		log:      logger.ForWorker(),
		interval: interval,
		params:   params,
	}
}

// Start runs crawl cycles until the worker's context is cancelled.
func (w *Worker) Start() {
	for {
		start := time.Now()
		w.runOnce()
		w.log.Info().Dur("elapsed", time.Since(start)).Msg("Crawl cycle completed")

		select {
		case <-w.ctx.Done():
			return
		case <-time.After(w.interval):
		}
	}
}

// runOnce runs every source in parallel and trims the streams after
// the cycle.
func (w *Worker) runOnce() {
	var wg sync.WaitGroup
	for _, r := range w.runners {
		wg.Add(1)
		go func(r CrawlRunner) {
			defer wg.Done()
			w.crawlAndPublish(r)
		}(r)
	}
	wg.Wait()

	if w.pub != nil {
		if err := w.pub.TrimStreams(); err != nil {
			w.log.Error().Err(err).Msg("Stream trimming failed")
		}
	}
}

// crawlAndPublish runs one source and publishes every upserted product
// keyed by its store. A publish failure affects only that product.
func (w *Worker) crawlAndPublish(r CrawlRunner) {
	summary, err := r.Run(w.ctx, w.params)
	if err != nil {
		w.log.Error().Err(err).Msg("Crawl run failed")
		return
	}
	if w.pub == nil {
		return
	}

	for _, product := range summary.Products {
		data, err := json.Marshal(product)
		if err != nil {
			w.log.Error().Err(err).Str("canonical_key", product.CanonicalKey).Msg("Marshal failed")
			continue
		}
		if err := w.pub.Publish(product.Store, data); err != nil {
			w.log.Error().Err(err).Str("canonical_key", product.CanonicalKey).Msg("Publish failed")
		}
	}
}
