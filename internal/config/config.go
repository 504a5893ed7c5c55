package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	RedisAddr       string
	LogstashTCPAddr string

	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOBucketScrapes string
	MinIOPublicURL     string
	ArchiveEnabled     bool
	ArchiveThreshold   int

	ScrapeInterval    time.Duration
	ScrapeBatchSize   int
	ScrapeConcurrency int
	ScrapeMaxRetries  int
	ScrapeBaseDelay   time.Duration
	ScrapeTimeout     time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	FareAPIBaseURL string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		RedisAddr:       getenv("REDIS_ADDR", ""),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		MinIOEndpoint:      getenv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:     getenv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:     getenv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:        getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketScrapes: getenv("MINIO_BUCKET_SCRAPES", "faredrop-scrapes"),
		MinIOPublicURL:     getenv("MINIO_PUBLIC_URL", ""),
		ArchiveEnabled:     getenv("ARCHIVE_RAW_PAYLOADS", "false") == "true",
		ArchiveThreshold:   getenvInt("ARCHIVE_THRESHOLD_BYTES", 32*1024),

		ScrapeInterval:    getenvMinutes("SCRAPE_INTERVAL_MINUTES", 5),
		ScrapeBatchSize:   getenvInt("SCRAPE_BATCH_SIZE", 50),
		ScrapeConcurrency: getenvInt("SCRAPE_CONCURRENCY", 8),
		ScrapeMaxRetries:  getenvInt("SCRAPE_MAX_RETRIES", 3),
		ScrapeBaseDelay:   time.Duration(getenvInt("SCRAPE_BASE_DELAY_MS", 1000)) * time.Millisecond,
		ScrapeTimeout:     time.Duration(getenvInt("SCRAPE_TIMEOUT_SECONDS", 30)) * time.Second,

		RateLimitRequests: getenvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   time.Duration(getenvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,

		FareAPIBaseURL: getenv("FARE_API_BASE_URL", ""),
	}
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvMinutes(k string, d int) time.Duration {
	return time.Duration(getenvInt(k, d)) * time.Minute
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
