package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Mongo configuration (upsert sink)
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Redis configuration (catalog update stream)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration (politeness cache)
	MemcacheAddr string

	// Crawl policy
	CrawlInterval      time.Duration
	Concurrency        int
	MaxListPages       int
	MaxProductsPerSeed int
	FetchTimeout       time.Duration
	MaxRetries         int
	RetryDelay         time.Duration
	RespectRobots      bool
	Debug              bool

	// Seed URLs for the source adapters
	BrickworksURL string
	ThreadbareURL string
	VeloModaURL   string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	crawlInterval, _ := strconv.Atoi(getEnv("CRAWL_INTERVAL_SECONDS", "3600"))
	concurrency, _ := strconv.Atoi(getEnv("CRAWL_CONCURRENCY", "2"))
	maxListPages, _ := strconv.Atoi(getEnv("MAX_LIST_PAGES", "5"))
	maxProducts, _ := strconv.Atoi(getEnv("MAX_PRODUCTS_PER_SEED", "200"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "15"))
	maxRetries, _ := strconv.Atoi(getEnv("FETCH_MAX_RETRIES", "2"))
	retryDelay, _ := strconv.Atoi(getEnv("FETCH_RETRY_DELAY_MS", "500"))

	return Config{
		MongoURI:             getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:        getEnv("MONGO_DATABASE", "catalog"),
		MongoCollection:      getEnv("MONGO_COLLECTION", "products"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "catalog-updates"),
		RedisStreamCount:     streamCount,
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		CrawlInterval:        time.Duration(crawlInterval) * time.Second,
		Concurrency:          concurrency,
		MaxListPages:         maxListPages,
		MaxProductsPerSeed:   maxProducts,
		FetchTimeout:         time.Duration(fetchTimeout) * time.Second,
		MaxRetries:           maxRetries,
		RetryDelay:           time.Duration(retryDelay) * time.Millisecond,
		RespectRobots:        getEnv("RESPECT_ROBOTS", "true") == "true",
		Debug:                getEnv("CRAWL_DEBUG", "false") == "true",
		BrickworksURL:        getEnv("BRICKWORKS_URL", "https://www.brickworks.co.uk"),
		ThreadbareURL:        getEnv("THREADBARE_URL", "https://www.threadbare.com"),
		VeloModaURL:          getEnv("VELOMODA_URL", "https://www.velomoda.de"),
		Environment:          getEnv("CATALOG_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for obviously broken values
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("CRAWL_CONCURRENCY must be at least 1, got %d", c.Concurrency)
	}
	if c.MaxListPages < 1 {
		return fmt.Errorf("MAX_LIST_PAGES must be at least 1, got %d", c.MaxListPages)
	}
	if c.MaxProductsPerSeed < 1 {
		return fmt.Errorf("MAX_PRODUCTS_PER_SEED must be at least 1, got %d", c.MaxProductsPerSeed)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("FETCH_MAX_RETRIES must not be negative")
	}
	if c.RedisStreamCount < 1 {
		return fmt.Errorf("REDIS_STREAM_COUNT must be at least 1, got %d", c.RedisStreamCount)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
