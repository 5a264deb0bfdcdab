package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	LLM      LLMConfig      `toml:"llm"`
	Qdrant   QdrantConfig   `toml:"qdrant"`
	Worker   WorkerConfig   `toml:"worker"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Logging  LoggingConfig  `toml:"logging"`
	CORS     CORSConfig     `toml:"cors"`
}

type ServerConfig struct {
	Port         string        `toml:"port" validate:"required"`
	Env          string        `toml:"env"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

type DatabaseConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host" validate:"required_if=Enabled true"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DBName   string `toml:"db_name"`
}

type StorageConfig struct {
	// Backend is "gcs" or "memory".
	Backend     string `toml:"backend" validate:"oneof=gcs memory"`
	Bucket      string `toml:"bucket" validate:"required_if=Backend gcs"`
	MaxFileSize int64  `toml:"max_file_size" validate:"gt=0"`
}

type LLMConfig struct {
	// Provider is "gemini", "vertex" or "claude".
	Provider        string        `toml:"provider" validate:"oneof=gemini vertex claude"`
	Model           string        `toml:"model"`
	EmbeddingModel  string        `toml:"embedding_model"`
	GeminiAPIKey    string        `toml:"gemini_api_key"`
	AnthropicAPIKey string        `toml:"anthropic_api_key"`
	VertexProject   string        `toml:"vertex_project"`
	VertexLocation  string        `toml:"vertex_location"`
	Timeout         time.Duration `toml:"timeout"`
	MaxRetries      int           `toml:"max_retries" validate:"gte=0"`
	InitialBackoff  time.Duration `toml:"initial_backoff"`
	MaxBackoff      time.Duration `toml:"max_backoff"`
	RatePerSecond   float64       `toml:"rate_per_second" validate:"gt=0"`
	MaxOutputTokens int           `toml:"max_output_tokens" validate:"gt=0"`
}

type QdrantConfig struct {
	URL        string `toml:"url"`
	APIKey     string `toml:"api_key"`
	Collection string `toml:"collection"`
}

type WorkerConfig struct {
	Concurrency int `toml:"concurrency" validate:"gte=1"`
	QueueSize   int `toml:"queue_size" validate:"gte=1"`
}

type CatalogConfig struct {
	Concurrency int `toml:"concurrency" validate:"gte=1"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type CORSConfig struct {
	AllowOrigins string `toml:"allow_origins"`
}

// Load builds the configuration from defaults, an optional TOML file and the
// environment, in that order of precedence (environment wins).
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := defaults()

	path := getEnv("CONFIG_FILE", "config.toml")
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "3000",
			Env:          "development",
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Database: DatabaseConfig{
			Enabled:  true,
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "resume_ingestor",
		},
		Storage: StorageConfig{
			Backend:     "gcs",
			Bucket:      "user-resumes-bucket",
			MaxFileSize: 10485760,
		},
		LLM: LLMConfig{
			Provider:        "gemini",
			Model:           "gemini-2.5-flash",
			EmbeddingModel:  "text-embedding-004",
			VertexLocation:  "us-central1",
			Timeout:         90 * time.Second,
			MaxRetries:      2,
			InitialBackoff:  time.Second,
			MaxBackoff:      8 * time.Second,
			RatePerSecond:   2,
			MaxOutputTokens: 4096,
		},
		Qdrant: QdrantConfig{
			Collection: "candidate_profiles",
		},
		Worker: WorkerConfig{
			Concurrency: 2,
			QueueSize:   100,
		},
		Catalog: CatalogConfig{
			Concurrency: 16,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		CORS: CORSConfig{
			AllowOrigins: "http://localhost:5173,https://resumeagent.in,https://www.resumeagent.in",
		},
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Env = getEnv("ENV", cfg.Server.Env)
	cfg.Server.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", cfg.Server.WriteTimeout)

	cfg.Database.Enabled = getEnvAsBool("DB_ENABLED", cfg.Database.Enabled)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)

	cfg.Storage.Backend = getEnv("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.Bucket = getEnv("GCS_BUCKET_NAME", cfg.Storage.Bucket)
	cfg.Storage.MaxFileSize = getEnvAsInt64("MAX_FILE_SIZE", cfg.Storage.MaxFileSize)

	cfg.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.EmbeddingModel = getEnv("EMBEDDING_MODEL", cfg.LLM.EmbeddingModel)
	cfg.LLM.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.LLM.GeminiAPIKey)
	cfg.LLM.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", cfg.LLM.AnthropicAPIKey)
	cfg.LLM.VertexProject = getEnv("GOOGLE_CLOUD_PROJECT", cfg.LLM.VertexProject)
	cfg.LLM.VertexLocation = getEnv("GOOGLE_CLOUD_LOCATION", cfg.LLM.VertexLocation)
	cfg.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", cfg.LLM.Timeout)
	cfg.LLM.MaxRetries = getEnvAsInt("LLM_MAX_RETRIES", cfg.LLM.MaxRetries)
	cfg.LLM.InitialBackoff = getEnvAsDuration("LLM_INITIAL_BACKOFF", cfg.LLM.InitialBackoff)
	cfg.LLM.MaxBackoff = getEnvAsDuration("LLM_MAX_BACKOFF", cfg.LLM.MaxBackoff)
	cfg.LLM.RatePerSecond = getEnvAsFloat("LLM_RATE_PER_SECOND", cfg.LLM.RatePerSecond)
	cfg.LLM.MaxOutputTokens = getEnvAsInt("LLM_MAX_OUTPUT_TOKENS", cfg.LLM.MaxOutputTokens)

	cfg.Qdrant.URL = getEnv("QDRANT_URL", cfg.Qdrant.URL)
	cfg.Qdrant.APIKey = getEnv("QDRANT_API_KEY", cfg.Qdrant.APIKey)
	cfg.Qdrant.Collection = getEnv("QDRANT_COLLECTION", cfg.Qdrant.Collection)

	cfg.Worker.Concurrency = getEnvAsInt("WORKER_CONCURRENCY", cfg.Worker.Concurrency)
	cfg.Worker.QueueSize = getEnvAsInt("WORKER_QUEUE_SIZE", cfg.Worker.QueueSize)
	cfg.Catalog.Concurrency = getEnvAsInt("CATALOG_CONCURRENCY", cfg.Catalog.Concurrency)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.CORS.AllowOrigins = getEnv("CORS_ORIGINS", cfg.CORS.AllowOrigins)
}

// Validate checks the struct-level constraints of the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return errors.New("invalid configuration: GEMINI_API_KEY is required for the gemini provider")
		}
	case "vertex":
		if c.LLM.VertexProject == "" {
			return errors.New("invalid configuration: GOOGLE_CLOUD_PROJECT is required for the vertex provider")
		}
	case "claude":
		if c.LLM.AnthropicAPIKey == "" {
			return errors.New("invalid configuration: ANTHROPIC_API_KEY is required for the claude provider")
		}
	}

	return nil
}

// IndexEnabled reports whether the candidate search index should be wired.
// Embeddings come from the genai client, so the claude provider has no index.
func (c *Config) IndexEnabled() bool {
	return c.Qdrant.URL != "" && c.LLM.Provider != "claude"
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}
