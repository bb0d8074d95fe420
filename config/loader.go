// =============================================================================
// Helium configuration loader
// =============================================================================
// Unified configuration loading: YAML file + environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("HELIUM").
//	    Load()
//
// Priority: defaults -> YAML file -> environment variables
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete helium configuration.
type Config struct {
	// Server is the HTTP service configuration.
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Auth controls authentication for the A2A and service endpoints.
	Auth AuthConfig `yaml:"auth" env:"AUTH"`

	// Team configures the research team runtime.
	Team TeamConfig `yaml:"team" env:"TEAM"`

	// Memory configures per-agent memory storage.
	Memory MemoryConfig `yaml:"memory" env:"MEMORY"`

	// Cache configures the shared Redis result cache.
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Store configures async task and conversation persistence.
	Store StoreConfig `yaml:"store" env:"STORE"`

	// RAG configures document chunking and retrieval.
	RAG RAGConfig `yaml:"rag" env:"RAG"`

	// Embedding configures the embedding provider used by retrieval.
	Embedding EmbeddingConfig `yaml:"embedding" env:"EMBEDDING"`

	// Search configures the web search tool.
	Search SearchConfig `yaml:"search" env:"SEARCH"`

	// Log is the logging configuration.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics is the Prometheus exposition configuration.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`

	// Telemetry is the OpenTelemetry configuration.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	// Bind host
	Host string `yaml:"host" env:"HOST"`
	// HTTP port
	Port int `yaml:"port" env:"PORT"`
	// Externally reachable base URL, used in agent cards
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// Read timeout
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// Write timeout
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// Per-request processing timeout for synchronous task execution
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	// Per-IP rate limit (requests per second); 0 disables limiting
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// Per-IP burst size
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// Allowed CORS origins; empty rejects cross-origin requests
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// Maximum accepted request body size in bytes
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// Enabled turns on bearer auth for A2A endpoints and JWT auth for the API
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Static bearer token accepted on A2A endpoints
	Token string `yaml:"token" env:"TOKEN"`
	// HMAC secret for JWT validation on the service API
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	// Expected JWT issuer (optional)
	JWTIssuer string `yaml:"jwt_issuer" env:"JWT_ISSUER"`
	// Expected JWT audience (optional)
	JWTAudience string `yaml:"jwt_audience" env:"JWT_AUDIENCE"`
}

// TeamConfig holds research team settings.
type TeamConfig struct {
	// ID of the team leader agent
	LeaderID string `yaml:"leader_id" env:"LEADER_ID"`
	// Timeout applied to a single member task execution
	MemberTimeout time.Duration `yaml:"member_timeout" env:"MEMBER_TIMEOUT"`
	// Maximum memory records retained per agent
	MemoryLimit int `yaml:"memory_limit" env:"MEMORY_LIMIT"`
	// Maximum conversation messages retained per session
	HistoryLimit int `yaml:"history_limit" env:"HISTORY_LIMIT"`
}

// MemoryConfig holds agent memory settings.
type MemoryConfig struct {
	// Backend: memory, redis
	Backend string `yaml:"backend" env:"BACKEND"`
	// Maximum records per agent before oldest are evicted
	MaxEntries int `yaml:"max_entries" env:"MAX_ENTRIES"`
	// Record time-to-live; 0 keeps records until evicted
	TTL time.Duration `yaml:"ttl" env:"TTL"`
	// Redis connection (backend "redis")
	Redis RedisConfig `yaml:"redis" env:"REDIS"`
}

// CacheConfig holds the shared result cache settings.
type CacheConfig struct {
	// Enabled turns the Redis cache on
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Default entry TTL
	DefaultTTL time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`
	// Redis connection
	Redis RedisConfig `yaml:"redis" env:"REDIS"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	// Address host:port
	Addr string `yaml:"addr" env:"ADDR"`
	// Password
	Password string `yaml:"password" env:"PASSWORD"`
	// Database number
	DB int `yaml:"db" env:"DB"`
	// Connection pool size
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// Minimum idle connections
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// Prefix applied to every key
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
	// Dial timeout
	DialTimeout time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT"`
}

// StoreConfig holds persistence settings for async tasks and conversations.
type StoreConfig struct {
	// Backend: memory, redis, database
	Backend string `yaml:"backend" env:"BACKEND"`
	// Redis connection (backend "redis")
	Redis RedisConfig `yaml:"redis" env:"REDIS"`
	// Database connection (backend "database")
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`
	// How often the cleanup loop runs
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"CLEANUP_INTERVAL"`
	// How long completed tasks are retained
	TaskRetention time.Duration `yaml:"task_retention" env:"TASK_RETENTION"`
}

// DatabaseConfig holds relational database settings.
type DatabaseConfig struct {
	// Driver: sqlite, postgres, mysql
	Driver string `yaml:"driver" env:"DRIVER"`
	// Host
	Host string `yaml:"host" env:"HOST"`
	// Port
	Port int `yaml:"port" env:"PORT"`
	// User
	User string `yaml:"user" env:"USER"`
	// Password
	Password string `yaml:"password" env:"PASSWORD"`
	// Database name, or file path for sqlite
	Name string `yaml:"name" env:"NAME"`
	// SSL mode (postgres)
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// Maximum open connections
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// Maximum idle connections
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// Connection maximum lifetime
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// RAGConfig holds chunking and retrieval settings.
type RAGConfig struct {
	// Target chunk size in characters
	ChunkSize int `yaml:"chunk_size" env:"CHUNK_SIZE"`
	// Overlap carried between adjacent chunks in characters
	ChunkOverlap int `yaml:"chunk_overlap" env:"CHUNK_OVERLAP"`
	// Chunks shorter than this are merged forward
	MinChunkSize int `yaml:"min_chunk_size" env:"MIN_CHUNK_SIZE"`
	// Default number of results per query
	TopK int `yaml:"top_k" env:"TOP_K"`
	// Hard cap on results per query
	MaxTopK int `yaml:"max_top_k" env:"MAX_TOP_K"`
	// Vector backend: memory, qdrant
	VectorBackend string `yaml:"vector_backend" env:"VECTOR_BACKEND"`
	// Qdrant connection (backend "qdrant")
	Qdrant QdrantConfig `yaml:"qdrant" env:"QDRANT"`
	// Query cache TTL when the shared cache is enabled
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
	// Tokenizer model for token counts; empty uses the character estimator
	TokenizerModel string `yaml:"tokenizer_model" env:"TOKENIZER_MODEL"`
}

// QdrantConfig holds Qdrant REST settings.
type QdrantConfig struct {
	// Base URL, e.g. http://localhost:6333
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// API key (optional)
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Prefix applied to collection names
	CollectionPrefix string `yaml:"collection_prefix" env:"COLLECTION_PREFIX"`
	// Request timeout
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	// Provider: local, openai, gemini
	Provider string `yaml:"provider" env:"PROVIDER"`
	// Model name for remote providers
	Model string `yaml:"model" env:"MODEL"`
	// API key for remote providers
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Base URL override for remote providers
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// Vector dimensionality
	Dimensions int `yaml:"dimensions" env:"DIMENSIONS"`
	// Maximum texts per embedding request
	BatchSize int `yaml:"batch_size" env:"BATCH_SIZE"`
	// Request timeout
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// SearchConfig holds web search tool settings.
type SearchConfig struct {
	// Google Custom Search API key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// Google Custom Search engine ID
	EngineID string `yaml:"engine_id" env:"ENGINE_ID"`
	// API base URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// Request timeout
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// Default number of results per search
	MaxResults int `yaml:"max_results" env:"MAX_RESULTS"`
	// Outbound rate limit (requests per second)
	RateLimit float64 `yaml:"rate_limit" env:"RATE_LIMIT"`
	// Outbound burst size
	Burst int `yaml:"burst" env:"BURST"`
	// User-Agent sent with page fetches
	UserAgent string `yaml:"user_agent" env:"USER_AGENT"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// Output paths
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// Include caller file:line
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// Include stacktraces on error
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	// Enabled serves the metrics endpoint
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Path of the metrics endpoint
	Path string `yaml:"path" env:"PATH"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	// Enabled initializes OTLP exporters
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP gRPC endpoint
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// Reported service name
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// Trace sampling ratio in [0,1]
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// Loader
// =============================================================================

// Loader loads configuration using the builder pattern.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "HELIUM",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML configuration file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a configuration validator.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load loads the configuration.
// Priority: defaults -> YAML file -> environment variables.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile loads configuration from the YAML file.
// A missing file is not an error; defaults apply.
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv applies environment variable overrides.
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv recursively sets struct fields from the environment.
// Nested structs extend the key: HELIUM_SEARCH_API_KEY.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct && field.Type() != reflect.TypeOf(time.Duration(0)) {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue parses value into the field according to its kind.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// time.Duration fields accept "30s" style values
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// Comma-separated string slices
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads the configuration, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// =============================================================================
// Validation
// =============================================================================

var (
	validStoreBackends     = map[string]bool{"memory": true, "redis": true, "database": true}
	validMemoryBackends    = map[string]bool{"memory": true, "redis": true}
	validVectorBackends    = map[string]bool{"memory": true, "qdrant": true}
	validDatabaseDrivers   = map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	validEmbeddingBackends = map[string]bool{"local": true, "openai": true, "gemini": true}
)

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server: invalid port")
	}
	if !validMemoryBackends[c.Memory.Backend] {
		errs = append(errs, fmt.Sprintf("memory: unknown backend %q", c.Memory.Backend))
	}
	if !validStoreBackends[c.Store.Backend] {
		errs = append(errs, fmt.Sprintf("store: unknown backend %q", c.Store.Backend))
	}
	if c.Store.Backend == "database" && !validDatabaseDrivers[c.Store.Database.Driver] {
		errs = append(errs, fmt.Sprintf("store: unknown database driver %q", c.Store.Database.Driver))
	}
	if c.RAG.ChunkSize <= 0 {
		errs = append(errs, "rag: chunk_size must be positive")
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		errs = append(errs, "rag: chunk_overlap must be smaller than chunk_size")
	}
	if c.RAG.TopK <= 0 || (c.RAG.MaxTopK > 0 && c.RAG.TopK > c.RAG.MaxTopK) {
		errs = append(errs, "rag: top_k must be in [1, max_top_k]")
	}
	if !validVectorBackends[c.RAG.VectorBackend] {
		errs = append(errs, fmt.Sprintf("rag: unknown vector backend %q", c.RAG.VectorBackend))
	}
	if !validEmbeddingBackends[c.Embedding.Provider] {
		errs = append(errs, fmt.Sprintf("embedding: unknown provider %q", c.Embedding.Provider))
	}
	if c.Embedding.Provider != "local" && c.Embedding.APIKey == "" {
		errs = append(errs, fmt.Sprintf("embedding: provider %q requires api_key", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, "embedding: dimensions must be positive")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry: otlp_endpoint required when enabled")
	}
	if c.Auth.Enabled && c.Auth.Token == "" && c.Auth.JWTSecret == "" {
		errs = append(errs, "auth: token or jwt_secret required when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN returns the database connection string for the configured driver.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}

// Address returns the host:port pair the server binds to.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
