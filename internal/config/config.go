package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// defaultImageModeImages is GALLERY_IMAGES_PER_PRODUCT when GALLERY_MODE is
// "image" and the variable is unset.
const defaultImageModeImages = 10

type Config struct {
	// Database
	DatabaseURL string

	// Kafka
	KafkaBrokers   []string
	KafkaBulkTopic string
	KafkaGroupID   string

	// API Configuration
	APIPort            string
	APIHost            string
	AppURL             string
	CORSAllowedOrigins []string

	// Shopify
	ShopifyClientID     string
	ShopifyClientSecret string
	ShopifyScopes       string
	ShopifyAPIVersion   string

	// Upstream GraphQL calls
	UpstreamTimeout    time.Duration
	UpstreamMaxRetries int

	// Page routes
	ListPageSize            int
	GalleryPageSize         int
	GalleryImagesPerProduct int
	GalleryMode             string

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	cfg := &Config{
		DatabaseURL:             getEnv("DATABASE_URL", "sqlite://productpager.db"),
		KafkaBrokers:            getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaBulkTopic:          getEnv("KAFKA_BULK_TOPIC", "product-bulk-actions"),
		KafkaGroupID:            getEnv("KAFKA_GROUP_ID", "productpager-worker"),
		APIPort:                 getEnv("API_PORT", "8080"),
		APIHost:                 getEnv("API_HOST", "0.0.0.0"),
		AppURL:                  getEnv("APP_URL", "http://localhost:8080"),
		CORSAllowedOrigins:      getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"https://admin.shopify.com"}),
		ShopifyClientID:         getEnv("SHOPIFY_CLIENT_ID", ""),
		ShopifyClientSecret:     getEnv("SHOPIFY_CLIENT_SECRET", ""),
		ShopifyScopes:           getEnv("SHOPIFY_SCOPES", "read_products,write_products"),
		ShopifyAPIVersion:       getEnv("SHOPIFY_API_VERSION", "2024-10"),
		UpstreamTimeout:         getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		UpstreamMaxRetries:      getEnvAsInt("UPSTREAM_MAX_RETRIES", 2),
		ListPageSize:            getEnvAsInt("LIST_PAGE_SIZE", 5),
		GalleryPageSize:         getEnvAsInt("GALLERY_PAGE_SIZE", 10),
		GalleryMode:             getEnv("GALLERY_MODE", "product"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}

	// Image mode is pointless with a single image per product.
	imagesPerProduct := 1
	if cfg.GalleryMode == "image" {
		imagesPerProduct = defaultImageModeImages
	}
	cfg.GalleryImagesPerProduct = getEnvAsInt("GALLERY_IMAGES_PER_PRODUCT", imagesPerProduct)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the page routes cannot work with.
func (c *Config) Validate() error {
	if c.ListPageSize <= 0 {
		return fmt.Errorf("LIST_PAGE_SIZE must be positive, got %d", c.ListPageSize)
	}
	if c.GalleryPageSize <= 0 {
		return fmt.Errorf("GALLERY_PAGE_SIZE must be positive, got %d", c.GalleryPageSize)
	}
	if c.GalleryImagesPerProduct <= 0 {
		return fmt.Errorf("GALLERY_IMAGES_PER_PRODUCT must be positive, got %d", c.GalleryImagesPerProduct)
	}
	if c.GalleryMode != "product" && c.GalleryMode != "image" {
		return fmt.Errorf("GALLERY_MODE must be \"product\" or \"image\", got %q", c.GalleryMode)
	}
	if c.GalleryMode == "image" && c.GalleryImagesPerProduct < 2 {
		return fmt.Errorf("GALLERY_IMAGES_PER_PRODUCT must be at least 2 when GALLERY_MODE is \"image\", got %d", c.GalleryImagesPerProduct)
	}
	if c.UpstreamMaxRetries < 0 {
		return fmt.Errorf("UPSTREAM_MAX_RETRIES must not be negative, got %d", c.UpstreamMaxRetries)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// Accept "10s" style durations as well as plain seconds
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
