package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// SourceConfig represents configuration for a single news source
type SourceConfig struct {
	URLs     []string
	Category string // default category attached to ingested articles
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	EnableRateLimit       bool
	RateLimitPerSecond    float64
	RateLimitBurst        int
	EnableCORS            bool
	AllowedOrigins        []string
	EnableSecurityHeaders bool
	MaxRequestSize        int64
	EnableRequestID       bool
}

// AIConfig holds settings for the external AI collaborators
type AIConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel string
	ChatModel      string
}

type Config struct {
	Port             int
	DataDir          string
	CacheTTL         time.Duration
	PollInterval     time.Duration
	ArticleRetention time.Duration
	LogLevel         string
	EnableSwagger    bool

	// Analysis and recommendation tuning
	EmbeddingDim            int
	SimilarityThreshold     float64
	ClusterRecencyWindow    time.Duration
	FreshnessWindow         time.Duration
	ColdStartThreshold      int
	ProfileSearchMultiplier int
	CandidateCategories     []string

	Sources  map[string]SourceConfig
	AI       AIConfig
	Security SecurityConfig
}

func Load() *Config {
	cfg := &Config{
		Port:             getEnvAsInt("PORT", 8080),
		DataDir:          getEnv("DATA_DIR", "./data"),
		CacheTTL:         getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		PollInterval:     getEnvAsDuration("POLL_INTERVAL", 15*time.Minute),
		ArticleRetention: getEnvAsDuration("ARTICLE_RETENTION", 30*24*time.Hour),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		EnableSwagger:    getEnvAsBool("ENABLE_SWAGGER", true),

		EmbeddingDim:            getEnvAsInt("EMBEDDING_DIM", 768),
		SimilarityThreshold:     getEnvAsFloat("SIMILARITY_THRESHOLD", 0.85),
		ClusterRecencyWindow:    getEnvAsDuration("CLUSTER_RECENCY_WINDOW", 24*time.Hour),
		FreshnessWindow:         getEnvAsDuration("FRESHNESS_WINDOW", 72*time.Hour),
		ColdStartThreshold:      getEnvAsInt("COLD_START_THRESHOLD", 10),
		ProfileSearchMultiplier: getEnvAsInt("PROFILE_SEARCH_MULTIPLIER", 3),
		CandidateCategories:     getEnvAsStringSlice("CANDIDATE_CATEGORIES", defaultCandidateCategories()),

		AI: AIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", ""),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			ChatModel:      getEnv("CHAT_MODEL", "gpt-4o-mini"),
		},

		Security: loadSecurityConfig(),
	}

	// Load news sources from environment variables
	cfg.Sources = loadSourcesFromEnv()
	if len(cfg.Sources) == 0 {
		cfg.Sources = getDefaultSources()
	}

	return cfg
}

func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableRateLimit:       getEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitPerSecond:    getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10.0),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 20),
		EnableCORS:            getEnvAsBool("ENABLE_CORS", true),
		AllowedOrigins:        getEnvAsStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		EnableSecurityHeaders: getEnvAsBool("ENABLE_SECURITY_HEADERS", true),
		MaxRequestSize:        getEnvAsInt64("MAX_REQUEST_SIZE", 10<<20), // 10MB
		EnableRequestID:       getEnvAsBool("ENABLE_REQUEST_ID", true),
	}
}

func loadSourcesFromEnv() map[string]SourceConfig {
	sources := make(map[string]SourceConfig)

	// Look for SOURCE_FEED_* environment variables
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "SOURCE_FEED_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) != 2 {
				continue
			}

			// Parse source name from SOURCE_FEED_<NAME>
			sourceName := strings.TrimPrefix(parts[0], "SOURCE_FEED_")
			sourceName = strings.ToLower(sourceName)

			urls, category := parseSourceValue(parts[1])
			sources[sourceName] = SourceConfig{
				URLs:     urls,
				Category: category,
			}
		}
	}

	return sources
}

func parseSourceValue(value string) ([]string, string) {
	// Format: "url1,url2,url3|category"
	// If no category specified, just URLs: "url1,url2,url3"

	parts := strings.Split(value, "|")
	urls := strings.Split(parts[0], ",")

	for i, url := range urls {
		urls[i] = strings.TrimSpace(url)
	}

	category := ""
	if len(parts) > 1 {
		category = strings.TrimSpace(parts[1])
	}

	return urls, category
}

func defaultCandidateCategories() []string {
	return []string{
		"economy", "politics", "it", "world",
		"life", "sports", "entertainment", "shopping",
	}
}

func getDefaultSources() map[string]SourceConfig {
	return map[string]SourceConfig{
		"world": {
			URLs: []string{
				"https://feeds.npr.org/1001/rss.xml",
				"http://rss.cnn.com/rss/edition_world.rss",
			},
			Category: "world",
		},
		"tech": {
			URLs: []string{
				"https://feeds.feedburner.com/TechCrunch",
				"https://feeds.arstechnica.com/arstechnica/index",
			},
			Category: "it",
		},
	}
}

func getEnv(key string, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		items := strings.Split(val, ",")
		for i := range items {
			items[i] = strings.TrimSpace(items[i])
		}
		return items
	}
	return defaultVal
}
