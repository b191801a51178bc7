package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LLM client implementations selectable with llm.client.
const (
	ClientSDK       = "sdk"
	ClientHTTP      = "http"
	ClientLangchain = "langchain"
)

// Archive drivers selectable with archive.driver.
const (
	ArchiveNone     = "none"
	ArchiveMySQL    = "mysql"
	ArchivePostgres = "postgres"
	ArchiveMinio    = "minio"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		IdleTimeout  time.Duration `yaml:"idleTimeout"`
		MaxBodyBytes int64         `yaml:"maxBodyBytes"`
		RateLimit    struct {
			Capacity        int `yaml:"capacity"`
			RefillPerSecond int `yaml:"refillPerSecond"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
		AllowedMethods []string `yaml:"allowedMethods"`
		AllowedHeaders []string `yaml:"allowedHeaders"`
	} `yaml:"cors"`

	LLM struct {
		Client      string        `yaml:"client"`
		APIKey      string        `yaml:"apiKey"`
		BaseURL     string        `yaml:"baseURL"`
		Model       string        `yaml:"model"`
		Temperature float32       `yaml:"temperature"`
		MaxTokens   int           `yaml:"maxTokens"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Archive struct {
		Driver   string `yaml:"driver"`
		Database struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Name     string `yaml:"name"`
			SSLMode  string `yaml:"sslMode"`
		} `yaml:"database"`
		Minio struct {
			Endpoint   string `yaml:"endpoint"`
			AccessKey  string `yaml:"accessKey"`
			SecretKey  string `yaml:"secretKey"`
			BucketName string `yaml:"bucketName"`
			Region     string `yaml:"region"`
			UseSSL     bool   `yaml:"useSSL"`
		} `yaml:"minio"`
	} `yaml:"archive"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	// completions regularly take longer than 15s
	c.Server.WriteTimeout = 120 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.MaxBodyBytes = 2 << 20

	c.CORS.AllowedOrigins = []string{"*"}
	c.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	c.CORS.AllowedHeaders = []string{"Content-Type"}

	c.LLM.Client = ClientSDK
	c.LLM.Model = "gpt-3.5-turbo"
	c.LLM.Temperature = 0.7
	c.LLM.MaxTokens = 1500

	c.Archive.Driver = ArchiveNone
	c.Archive.Database.SSLMode = "disable"
	c.Archive.Minio.BucketName = "policylens"

	c.Log.Level = "info"
	c.Log.Format = "text"
	return &c
}

// Load baca file config.yaml di atas Default, lalu .env dan environment.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &Error{Field: "PORT", Message: "must be a number"}
		}
		c.Server.Port = port
	}
	return nil
}

// Validate rejects unknown enum values. A missing API key is not an error:
// requests then fail at the upstream authentication step.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Client {
	case ClientSDK, ClientHTTP, ClientLangchain:
	default:
		errs = append(errs, &Error{Field: "llm.client", Message: fmt.Sprintf("unknown client %q (allowed: sdk, http, langchain)", c.LLM.Client)})
	}
	switch c.Archive.Driver {
	case ArchiveNone, ArchiveMySQL, ArchivePostgres, ArchiveMinio:
	default:
		errs = append(errs, &Error{Field: "archive.driver", Message: fmt.Sprintf("unknown driver %q (allowed: none, mysql, postgres, minio)", c.Archive.Driver)})
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, &Error{Field: "server.port", Message: "out of range"})
	}
	return errors.Join(errs...)
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	d := c.Archive.Database
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// PostgresDSN builds a lib/pq connection URL.
func (c *Config) PostgresDSN() string {
	d := c.Archive.Database
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Error represents a configuration error
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}
