package engine

import (
	"context"
	goerrors "errors"
	"sync"
	"time"

	"stylehunt/catalogworker/internal/catalog"
	"stylehunt/catalogworker/internal/extract"
	"stylehunt/catalogworker/internal/source"
	"stylehunt/catalogworker/logger"
	"stylehunt/catalogworker/pkg/errors"
	"stylehunt/catalogworker/services/sink"
)

// Engine drives the LIST→DETAIL task graph for one source adapter:
// fetch, classify, extract links or fields, merge by canonical key,
// flush to the sink. Nothing in a run is fatal to the process; every
// failure is scoped to one task or record.
type Engine struct {
	adapter source.Adapter
	fetcher Fetcher
	store   sink.Sink
	log     *logger.Logger
}

// New creates an engine for one source.
func New(adapter source.Adapter, fetcher Fetcher, store sink.Sink) *Engine {
	return &Engine{
		adapter: adapter,
		fetcher: fetcher,
		store:   store,
		log:     logger.ForSource(adapter.ID()),
	}
}

// runState is the shared mutable state of one run. The queue grows as
// workers discover links, so draining is detected by "no in-flight
// workers and empty queue", never by predicting task counts.
type runState struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Task
	inflight int
	done     bool

	seen            map[string]bool
	productsBySeed  map[string]int
	listPagesRun    int
	detailPagesRun  int
	tasksFailed     int
}

func newRunState() *runState {
	s := &runState{
		seen:           make(map[string]bool),
		productsBySeed: make(map[string]int),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// push enqueues a task unless its canonicalized URL was already seen
// this run.
func (s *runState) push(task Task) bool {
	key := catalog.CanonicalURL(task.URL)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return false
	}
	s.seen[key] = true
	s.queue = append(s.queue, task)
	s.cond.Signal()
	return true
}

// pop blocks until a task is available or the run is drained. The
// second return is false when the run is over.
func (s *runState) pop() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.done {
			return Task{}, false
		}
		if len(s.queue) > 0 {
			task := s.queue[0]
			s.queue = s.queue[1:]
			s.inflight++
			return task, true
		}
		if s.inflight == 0 {
			s.done = true
			s.cond.Broadcast()
			return Task{}, false
		}
		s.cond.Wait()
	}
}

// finish marks a pulled task complete.
func (s *runState) finish() {
	s.mu.Lock()
	s.inflight--
	if s.inflight == 0 && len(s.queue) == 0 {
		s.done = true
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Run executes one crawl run and flushes the accumulated catalog to
// the sink. The returned summary is complete even when individual
// tasks failed.
func (e *Engine) Run(ctx context.Context, params Params) (*Summary, error) {
	params = params.withDefaults()
	start := time.Now()

	seeds := params.Seeds
	if len(seeds) == 0 {
		seeds = e.adapter.Seeds()
	}

	state := newRunState()
	accumulator := catalog.NewAccumulator()

	for _, seed := range seeds {
		kind := e.adapter.Classify(seed.URL)
		if kind == source.KindUnknown {
			e.log.Warn().Str("url", seed.URL).Msg("Dropping unclassifiable seed")
			continue
		}
		state.push(Task{
			URL:        seed.URL,
			Kind:       kind,
			SourceID:   e.adapter.ID(),
			PageDepth:  1,
			Gender:     seed.Gender,
			Category:   seed.Category,
			ParentSeed: seed.URL,
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < params.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, ok := state.pop()
				if !ok {
					return
				}
				// Run caps act as a cooperative cancellation signal
				// checked between tasks; in-flight work completes.
				if ctx.Err() != nil {
					state.finish()
					continue
				}
				e.process(ctx, task, params, state, accumulator)
				state.finish()
			}
		}()
	}
	wg.Wait()

	summary := e.flush(ctx, accumulator)
	state.mu.Lock()
	summary.ListPages = state.listPagesRun
	summary.DetailPages = state.detailPagesRun
	summary.TasksFailed = state.tasksFailed
	state.mu.Unlock()
	summary.Duration = time.Since(start)

	e.log.Info().
		Int("products", len(summary.Products)).
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("errored", summary.Errored).
		Int("tasks_failed", summary.TasksFailed).
		Strs("top_skip_reasons", summary.TopSkipReasons(3)).
		Dur("duration", summary.Duration).
		Msg("Crawl run completed")

	return summary, nil
}

// process handles one task through its state machine:
// ENQUEUED → FETCHING → {LIST_PROCESSED | DETAIL_EXTRACTED | FAILED}.
func (e *Engine) process(ctx context.Context, task Task, params Params, state *runState, accumulator *catalog.Accumulator) {
	page, err := e.fetchPage(ctx, task, params)
	if err != nil {
		e.log.Warn().Err(err).Str("url", task.URL).Msg("Task failed")
		state.mu.Lock()
		state.tasksFailed++
		state.mu.Unlock()
		return
	}

	switch task.Kind {
	case source.KindList:
		e.processList(task, page, params, state)
	case source.KindDetail:
		e.processDetail(task, page, params, accumulator)
		state.mu.Lock()
		state.detailPagesRun++
		state.mu.Unlock()
	}
}

// fetchPage fetches and parses a page, retrying transient fetch
// failures up to the configured bound. Extraction-level absence is
// never retried.
func (e *Engine) fetchPage(ctx context.Context, task Task, params Params) (*extract.Page, error) {
	var lastErr error
	for attempt := 0; attempt <= params.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(params.RetryDelay)
		}
		body, err := e.fetcher.Fetch(ctx, task.URL)
		if err != nil {
			lastErr = err
			var pipelineErr *errors.PipelineError
			if goerrors.As(err, &pipelineErr) && !pipelineErr.IsRetryable() {
				return nil, err
			}
			continue
		}
		page, err := extract.NewPage(task.URL, body)
		if err != nil {
			return nil, errors.NewParsing(task.SourceID, "parse "+task.URL, err)
		}
		return page, nil
	}
	return nil, lastErr
}

// processList harvests DETAIL links and at most one next-page LIST
// task, gated by the per-seed page depth cap.
func (e *Engine) processList(task Task, page *extract.Page, params Params, state *runState) {
	state.mu.Lock()
	state.listPagesRun++
	state.mu.Unlock()

	links := e.adapter.ListLinks(page)
	enqueued := 0
	for _, link := range links {
		if e.adapter.Classify(link) != source.KindDetail {
			continue
		}
		state.mu.Lock()
		capReached := state.productsBySeed[task.ParentSeed] >= params.MaxProductsPerSeed
		if !capReached {
			state.productsBySeed[task.ParentSeed]++
		}
		state.mu.Unlock()
		if capReached {
			break
		}
		if state.push(Task{
			URL:        link,
			Kind:       source.KindDetail,
			SourceID:   task.SourceID,
			PageDepth:  task.PageDepth,
			Gender:     task.Gender,
			Category:   task.Category,
			ParentSeed: task.ParentSeed,
		}) {
			enqueued++
		}
	}

	if task.PageDepth < params.MaxListPages {
		if next := e.adapter.NextPageURL(page, task.PageDepth); next != "" {
			state.push(Task{
				URL:        next,
				Kind:       source.KindList,
				SourceID:   task.SourceID,
				PageDepth:  task.PageDepth + 1,
				Gender:     task.Gender,
				Category:   task.Category,
				ParentSeed: task.ParentSeed,
			})
		}
	}

	if params.Debug {
		e.log.Debug().
			Str("url", task.URL).
			Int("links", len(links)).
			Int("enqueued", enqueued).
			Msg("List page processed")
	}
}

// processDetail extracts and normalizes one product page and merges
// the fragment into the run accumulator.
func (e *Engine) processDetail(task Task, page *extract.Page, params Params, accumulator *catalog.Accumulator) {
	fragment := e.extractProduct(task, page, params)
	merged := accumulator.Absorb(fragment)

	if params.Debug {
		e.log.Debug().
			Str("url", task.URL).
			Str("canonical_key", merged.CanonicalKey).
			Int("images", len(merged.Images)).
			Msg("Detail page extracted")
	}
}

// flush validates every accumulated product and upserts the survivors.
// A record missing mandatory fields is discarded here with a
// diagnostic naming exactly what was missing.
func (e *Engine) flush(ctx context.Context, accumulator *catalog.Accumulator) *Summary {
	summary := &Summary{
		Source:      e.adapter.ID(),
		SkipReasons: make(map[string]int),
	}

	for _, product := range accumulator.Flush() {
		if missing := product.MissingFields(); len(missing) > 0 {
			summary.Skipped++
			for _, field := range missing {
				summary.SkipReasons["missing "+field]++
			}
			e.log.Warn().
				Str("canonical_key", product.CanonicalKey).
				Str("url", product.ProductURL).
				Strs("missing_fields", missing).
				Msg("Skipping incomplete product")
			continue
		}

		result, err := e.store.Upsert(ctx, product)
		if err != nil {
			summary.Errored++
			e.log.Error().Err(err).Str("canonical_key", product.CanonicalKey).Msg("Upsert failed")
			continue
		}
		switch result {
		case sink.ResultInserted:
			summary.Inserted++
		case sink.ResultUpdated:
			summary.Updated++
		default:
			summary.Unchanged++
		}
		summary.Products = append(summary.Products, product)
	}

	return summary
}
