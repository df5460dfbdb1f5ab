package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"stylehunt/catalogworker/config"
	"stylehunt/catalogworker/helpers"
	"stylehunt/catalogworker/internal/engine"
	"stylehunt/catalogworker/internal/fetch"
	"stylehunt/catalogworker/internal/source"
	"stylehunt/catalogworker/logger"
	"stylehunt/catalogworker/services/cache"
	"stylehunt/catalogworker/services/publisher"
	"stylehunt/catalogworker/services/sink"
	"stylehunt/catalogworker/services/worker"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	helpers.SetTimeout(cfg.FetchTimeout)

	log.Info().
		Str("environment", cfg.Environment).
		Dur("crawl_interval", cfg.CrawlInterval).
		Int("concurrency", cfg.Concurrency).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, &cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup(ctx)

	// Create one engine per configured source
	fetcher := fetch.NewPoliteFetcher(services.Cache, cfg.RespectRobots, cfg.CrawlInterval)
	adapters := source.Registry(cfg)
	if len(adapters) == 0 {
		log.Fatal().Msg("No source adapters were created")
	}

	runners := make([]worker.CrawlRunner, 0, len(adapters))
	for _, adapter := range adapters {
		runners = append(runners, engine.New(adapter, fetcher, services.Sink))
	}

	log.Info().
		Int("source_count", len(runners)).
		Msg("Created source engines")

	params := engine.Params{
		MaxListPages:       cfg.MaxListPages,
		MaxProductsPerSeed: cfg.MaxProductsPerSeed,
		Concurrency:        cfg.Concurrency,
		MaxRetries:         cfg.MaxRetries,
		RetryDelay:         cfg.RetryDelay,
		Debug:              cfg.Debug,
	}

	// Create and start worker
	w := worker.NewWorker(ctx, runners, services.Publisher, cfg.CrawlInterval, params)

	workerDone := make(chan struct{})
	go func() {
		log.Info().Msg("Starting catalog worker")
		w.Start()
		close(workerDone)
	}()

	// Wait for shutdown signal or worker exit
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case <-workerDone:
		log.Info().Msg("Worker exited")
	}

	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Sink      sink.Sink
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup(ctx context.Context) {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Sink != nil {
		s.Sink.Close(ctx)
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize cache service
	services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	// Initialize the upsert sink
	mongoSink, err := sink.NewMongoSink(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	if err != nil {
		return nil, err
	}
	services.Sink = mongoSink
	logger.Info("Connected to MongoDB at %s (collection: %s.%s)",
		cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)

	// Initialize publisher
	services.Publisher = publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	return services, nil
}
