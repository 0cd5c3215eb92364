package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration.
// Environment keys are SECTION_FIELD, e.g. SERVER_PORT, OPENAI_API_KEY, PIPELINE_POLL_INTERVAL.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	AssemblyAI AssemblyAIConfig
	OpenAI     OpenAIConfig
	ElevenLabs ElevenLabsConfig
	Pipeline   PipelineConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string        `split_words:"true" default:"8080"`
	Host            string        `split_words:"true" default:"0.0.0.0"`
	Environment     string        `split_words:"true" default:"development"`
	AllowedOrigins  []string      `split_words:"true" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
	MaxUploadMB     int64         `split_words:"true" default:"512"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `split_words:"true" default:"localhost"`
	Port        string `split_words:"true" default:"5432"`
	User        string `split_words:"true" default:"postgres"`
	Password    string `split_words:"true" default:"postgres"`
	Name        string `split_words:"true" default:"video_dubber"`
	SSLMode     string `envconfig:"SSLMODE" default:"disable"`
	MaxConns    int    `split_words:"true" default:"25"`
	MinConns    int    `split_words:"true" default:"5"`
	AutoMigrate bool   `split_words:"true" default:"true"`
}

// RedisConfig holds Redis configuration. When disabled, progress is kept in memory.
type RedisConfig struct {
	Enabled  bool   `split_words:"true" default:"false"`
	Host     string `split_words:"true" default:"localhost"`
	Port     string `split_words:"true" default:"6379"`
	Password string `split_words:"true"`
	DB       int    `split_words:"true" default:"0"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type            string        `split_words:"true" default:"minio"` // "minio" or "s3"
	Endpoint        string        `split_words:"true" default:"localhost:9000"`
	AccessKeyID     string        `split_words:"true" default:"minioadmin"`
	SecretAccessKey string        `split_words:"true" default:"minioadmin"`
	BucketName      string        `split_words:"true" default:"video-dubber"`
	UseSSL          bool          `split_words:"true" default:"false"`
	PublicURL       string        `split_words:"true"`
	URLExpiry       time.Duration `split_words:"true" default:"24h"`
}

// AssemblyAIConfig holds AssemblyAI configuration
type AssemblyAIConfig struct {
	APIKey  string `split_words:"true"`
	BaseURL string `split_words:"true"`
}

// OpenAIConfig holds OpenAI configuration for translation and speech
type OpenAIConfig struct {
	APIKey    string `split_words:"true"`
	BaseURL   string `split_words:"true"`
	ChatModel string `split_words:"true" default:"gpt-4o-mini"`
	TTSModel  string `split_words:"true" default:"gpt-4o-mini-tts"`
}

// ElevenLabsConfig holds ElevenLabs configuration for cloning and speech
type ElevenLabsConfig struct {
	APIKey  string `split_words:"true"`
	BaseURL string `split_words:"true" default:"https://api.elevenlabs.io"`
	Model   string `split_words:"true" default:"eleven_multilingual_v2"`
}

// PipelineConfig tunes the dubbing pipeline
type PipelineConfig struct {
	PollInterval         time.Duration `split_words:"true" default:"2s"`
	PollAttempts         int           `split_words:"true" default:"300"`
	SynthesisConcurrency int           `split_words:"true" default:"1"`
	FFmpegPath           string        `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	WorkDir              string        `split_words:"true"`
	RunTimeout           time.Duration `split_words:"true" default:"30m"`
	Workers              int           `split_words:"true" default:"2"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{}
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration.
// Provider keys are optional here because requests may supply their own.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}
	if c.Pipeline.PollInterval <= 0 {
		return fmt.Errorf("PIPELINE_POLL_INTERVAL must be positive")
	}
	if c.Pipeline.PollAttempts < 1 {
		return fmt.Errorf("PIPELINE_POLL_ATTEMPTS must be at least 1")
	}
	if c.Pipeline.SynthesisConcurrency < 1 {
		return fmt.Errorf("PIPELINE_SYNTHESIS_CONCURRENCY must be at least 1")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be at least 1")
	}
	if c.Pipeline.FFmpegPath == "" {
		return fmt.Errorf("PIPELINE_FFMPEG_PATH is required")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// GetServerAddr returns the listen address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
