package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Graph store configuration
	Graph GraphConfig `mapstructure:"graph"`

	// Dataset configuration
	Dataset DatasetConfig `mapstructure:"dataset"`

	// NLP configuration
	NLP NLPConfig `mapstructure:"nlp"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Classifier configuration
	Classifier ClassifierConfig `mapstructure:"classifier"`

	// Diagnosis configuration
	Diagnosis DiagnosisConfig `mapstructure:"diagnosis"`

	// Medline configuration
	Medline MedlineConfig `mapstructure:"medline"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Alert configuration
	Alert AlertConfig `mapstructure:"alert"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// GraphConfig holds knowledge graph store configuration
type GraphConfig struct {
	Driver   string `mapstructure:"driver"` // neo4j, memory
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// DatasetConfig holds corpus configuration
type DatasetConfig struct {
	Path         string  `mapstructure:"path"`
	TestFraction float64 `mapstructure:"test_fraction"`
	Seed         int64   `mapstructure:"seed"`
}

// NLPConfig holds language model configuration
type NLPConfig struct {
	Provider    string  `mapstructure:"provider"` // openai, ollama
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"` // embedeverything, openai
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// ClassifierConfig holds classifier training and persistence configuration
type ClassifierConfig struct {
	ModelPath   string  `mapstructure:"model_path"`
	MaxFeatures int     `mapstructure:"max_features"`
	MaxIter     int     `mapstructure:"max_iter"`
	LearnRate   float64 `mapstructure:"learn_rate"`
}

// DiagnosisConfig holds pipeline defaults
type DiagnosisConfig struct {
	Engine          string  `mapstructure:"engine"` // graph, classifier, hybrid
	TopK            int     `mapstructure:"top_k"`
	ClassifierAlpha float64 `mapstructure:"classifier_alpha"`
	VocabPath       string  `mapstructure:"vocab_path"`
}

// MedlineConfig holds MedlinePlus batch configuration
type MedlineConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	CheckpointPath string `mapstructure:"checkpoint_path"`
	OutputPath     string `mapstructure:"output_path"`
	SleepMillis    int    `mapstructure:"sleep_millis"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// AlertConfig holds configuration for alerting
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Graph defaults
	viper.SetDefault("graph.driver", "memory")
	viper.SetDefault("graph.uri", "bolt://localhost:7687")
	viper.SetDefault("graph.username", "neo4j")
	viper.SetDefault("graph.password", "")
	viper.SetDefault("graph.database", "neo4j")

	// Dataset defaults
	viper.SetDefault("dataset.path", "data/symptom2disease.csv")
	viper.SetDefault("dataset.test_fraction", 0.2)
	viper.SetDefault("dataset.seed", 42)

	// NLP defaults
	viper.SetDefault("nlp.provider", "openai")
	viper.SetDefault("nlp.model", "gpt-4o-mini")
	viper.SetDefault("nlp.base_url", "")
	viper.SetDefault("nlp.temperature", 0.2)
	viper.SetDefault("nlp.max_tokens", 2048)

	// Embedding defaults
	viper.SetDefault("embedding.provider", "embedeverything")
	viper.SetDefault("embedding.model", "all-MiniLM-L6-v2")

	// Classifier defaults
	viper.SetDefault("classifier.model_path", "models/classifier.json")
	viper.SetDefault("classifier.max_features", 5000)
	viper.SetDefault("classifier.max_iter", 1000)
	viper.SetDefault("classifier.learn_rate", 0.1)

	// Diagnosis defaults
	viper.SetDefault("diagnosis.engine", "hybrid")
	viper.SetDefault("diagnosis.top_k", 3)
	viper.SetDefault("diagnosis.classifier_alpha", 0.6)
	viper.SetDefault("diagnosis.vocab_path", "models/vocab.json")

	// Medline defaults
	viper.SetDefault("medline.base_url", "https://wsearch.nlm.nih.gov/ws/query")
	viper.SetDefault("medline.checkpoint_path", "data/medline_checkpoint")
	viper.SetDefault("medline.output_path", "data/disease_summaries.json")
	viper.SetDefault("medline.sleep_millis", 200)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", false)
	viper.SetDefault("circuit_breaker.max_requests", 3)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 60)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)

	// Alert defaults
	viper.SetDefault("alert.enabled", false)
}

// overrideWithEnv overrides select values from well-known environment variables
func overrideWithEnv(config *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && config.NLP.APIKey == "" {
		config.NLP.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && config.Embedding.APIKey == "" {
		config.Embedding.APIKey = v
	}
	if v := os.Getenv("NEO4J_URI"); v != "" {
		config.Graph.URI = v
	}
	if v := os.Getenv("NEO4J_USERNAME"); v != "" {
		config.Graph.Username = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		config.Graph.Password = v
	}
}
