package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Audio    AudioConfig    `yaml:"audio"`
	AI       AIConfig       `yaml:"ai"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Outbox   OutboxConfig   `yaml:"outbox"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes"`
}

type StorageConfig struct {
	// Driver is one of memory, postgres, sqlite, mongo.
	Driver string      `yaml:"driver"`
	DSN    string      `yaml:"dsn"`
	Mongo  MongoConfig `yaml:"mongo"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type AudioConfig struct {
	Dir string `yaml:"dir"`
}

type AIConfig struct {
	// Transcriber is service or openai.
	Transcriber string `yaml:"transcriber"`
	// Summarizer is service, openai or gemini.
	Summarizer        string        `yaml:"summarizer"`
	ServiceURL        string        `yaml:"service_url"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
	OpenAI            OpenAIConfig  `yaml:"openai"`
	Gemini            GeminiConfig  `yaml:"gemini"`
}

type OpenAIConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	STTModel  string `yaml:"stt_model"`
	ChatModel string `yaml:"chat_model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type PipelineConfig struct {
	// StepTimeout bounds each remote call. Zero disables it.
	StepTimeout time.Duration `yaml:"step_timeout"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type OutboxConfig struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

type WatchConfig struct {
	Dir           string `yaml:"dir"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the optional YAML file at path, applies environment overrides
// (a .env file in the working directory is honoured) and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("HTTP_ADDR", &c.HTTP.Addr)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("DATABASE_URL", &c.Storage.DSN)
	str("MONGO_URI", &c.Storage.Mongo.URI)
	str("MONGO_DATABASE", &c.Storage.Mongo.Database)
	str("AUDIO_DIR", &c.Audio.Dir)
	str("AI_TRANSCRIBER", &c.AI.Transcriber)
	str("AI_SUMMARIZER", &c.AI.Summarizer)
	str("AI_SERVICE_URL", &c.AI.ServiceURL)
	str("OPENAI_API_KEY", &c.AI.OpenAI.APIKey)
	str("OPENAI_BASE_URL", &c.AI.OpenAI.BaseURL)
	str("GEMINI_API_KEY", &c.AI.Gemini.APIKey)
	str("KAFKA_TOPIC", &c.Kafka.Topic)
	str("WATCH_DIR", &c.Watch.Dir)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}
	if v, ok := lookup("PIPELINE_STEP_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PIPELINE_STEP_TIMEOUT: %w", err)
		}
		c.Pipeline.StepTimeout = d
	}
	if v, ok := lookup("AI_REQUESTS_PER_SECOND"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("AI_REQUESTS_PER_SECOND: %w", err)
		}
		c.AI.RequestsPerSecond = f
	}
	return nil
}

// Validate fills defaults and rejects inconsistent settings.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8081"
	}
	if c.HTTP.ReadHeaderTimeout == 0 {
		c.HTTP.ReadHeaderTimeout = 5 * time.Second
	}
	if c.HTTP.MaxUploadBytes == 0 {
		c.HTTP.MaxUploadBytes = 100 << 20
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres", "sqlite":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %s", c.Storage.Driver)
		}
	case "mongo":
		if c.Storage.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri is required for driver mongo")
		}
		if c.Storage.Mongo.Database == "" {
			c.Storage.Mongo.Database = "meetings"
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver)
	}

	if c.Audio.Dir == "" {
		c.Audio.Dir = "uploads/audio"
	}

	if c.AI.Transcriber == "" {
		c.AI.Transcriber = "service"
	}
	if c.AI.Summarizer == "" {
		c.AI.Summarizer = "service"
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 10 * time.Minute
	}
	if c.AI.RequestsPerSecond < 0 {
		return fmt.Errorf("ai.requests_per_second cannot be negative")
	}
	switch c.AI.Transcriber {
	case "service", "openai":
	default:
		return fmt.Errorf("ai.transcriber %q is not supported", c.AI.Transcriber)
	}
	switch c.AI.Summarizer {
	case "service", "openai", "gemini":
	default:
		return fmt.Errorf("ai.summarizer %q is not supported", c.AI.Summarizer)
	}
	if c.uses("service") && c.AI.ServiceURL == "" {
		c.AI.ServiceURL = "http://localhost:8000"
	}
	if c.uses("openai") && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("ai.openai.api_key is required")
	}
	if c.AI.Summarizer == "gemini" {
		if c.AI.Gemini.APIKey == "" {
			return fmt.Errorf("ai.gemini.api_key is required")
		}
		if c.AI.Gemini.Model == "" {
			c.AI.Gemini.Model = "gemini-2.5-flash"
		}
	}

	if c.Pipeline.StepTimeout < 0 {
		return fmt.Errorf("pipeline.step_timeout cannot be negative")
	}

	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "meeting-events"
	}
	if c.Outbox.Interval == 0 {
		c.Outbox.Interval = time.Second
	}
	if c.Outbox.BatchSize == 0 {
		c.Outbox.BatchSize = 100
	}

	if c.Watch.Dir == "" {
		c.Watch.Dir = "inbox"
	}
	if c.Watch.MaxConcurrent == 0 {
		c.Watch.MaxConcurrent = 2
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be json or console")
	}

	return nil
}

func (c *Config) uses(provider string) bool {
	return c.AI.Transcriber == provider || c.AI.Summarizer == provider
}
