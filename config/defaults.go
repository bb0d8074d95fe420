// =============================================================================
// Helium default configuration
// =============================================================================
// Sensible defaults for every configuration section. The defaults describe a
// single-node deployment with in-process backends; Redis, a relational
// database, and Qdrant are opt-in.
// =============================================================================
package config

import "time"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Auth:      AuthConfig{},
		Team:      DefaultTeamConfig(),
		Memory:    DefaultMemoryConfig(),
		Cache:     DefaultCacheConfig(),
		Store:     DefaultStoreConfig(),
		RAG:       DefaultRAGConfig(),
		Embedding: DefaultEmbeddingConfig(),
		Search:    DefaultSearchConfig(),
		Log:       DefaultLogConfig(),
		Metrics:   DefaultMetricsConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		BaseURL:         "http://localhost:8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RequestTimeout:  30 * time.Second,
		RateLimitRPS:    50,
		RateLimitBurst:  100,
		MaxBodyBytes:    1 << 20,
	}
}

// DefaultTeamConfig returns the default team configuration.
func DefaultTeamConfig() TeamConfig {
	return TeamConfig{
		LeaderID:      "zane",
		MemberTimeout: 2 * time.Minute,
		MemoryLimit:   200,
		HistoryLimit:  50,
	}
}

// DefaultMemoryConfig returns the default agent memory configuration.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Backend:    "memory",
		MaxEntries: 200,
		TTL:        0,
		Redis:      DefaultRedisConfig(),
	}
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:    false,
		DefaultTTL: 5 * time.Minute,
		Redis:      DefaultRedisConfig(),
	}
}

// DefaultRedisConfig returns the default Redis connection configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		KeyPrefix:    "helium:",
		DialTimeout:  5 * time.Second,
	}
}

// DefaultStoreConfig returns the default persistence configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:         "memory",
		Redis:           DefaultRedisConfig(),
		Database:        DefaultDatabaseConfig(),
		CleanupInterval: time.Hour,
		TaskRetention:   24 * time.Hour,
	}
}

// DefaultDatabaseConfig returns the default database configuration.
// sqlite keeps the single-node setup dependency free.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Host:            "localhost",
		Port:            5432,
		User:            "helium",
		Password:        "",
		Name:            "helium.db",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultRAGConfig returns the default retrieval configuration.
func DefaultRAGConfig() RAGConfig {
	return RAGConfig{
		ChunkSize:     1000,
		ChunkOverlap:  200,
		MinChunkSize:  50,
		TopK:          5,
		MaxTopK:       10,
		VectorBackend: "memory",
		Qdrant:        DefaultQdrantConfig(),
		CacheTTL:      10 * time.Minute,
	}
}

// DefaultQdrantConfig returns the default Qdrant configuration.
func DefaultQdrantConfig() QdrantConfig {
	return QdrantConfig{
		BaseURL:          "http://localhost:6333",
		APIKey:           "",
		CollectionPrefix: "helium_",
		Timeout:          30 * time.Second,
	}
}

// DefaultEmbeddingConfig returns the default embedding configuration.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Provider:   "local",
		Model:      "",
		Dimensions: 384,
		BatchSize:  100,
		Timeout:    30 * time.Second,
	}
}

// DefaultSearchConfig returns the default web search configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		BaseURL:    "https://www.googleapis.com/customsearch/v1",
		Timeout:    10 * time.Second,
		MaxResults: 3,
		RateLimit:  5,
		Burst:      5,
		UserAgent:  "HeliumAI/1.0",
	}
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled: true,
		Path:    "/metrics",
	}
}

// DefaultTelemetryConfig returns the default telemetry configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "helium",
		SampleRate:   0.1,
	}
}
