package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	defaultTemperature = 0.2
	defaultMaxDepth    = 1
)

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	Model           string        `yaml:"model"`
	EmbedModel      string        `yaml:"embed_model"`
	// Temperature defaults to 0.2 when unset; 0 is kept.
	Temperature     *float64      `yaml:"temperature"`
	MaxTokens       int           `yaml:"max_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
	SystemTemplate  string        `yaml:"system_template"`
	ContextTemplate string        `yaml:"context_template"`
}

func (l LLMConfig) TemperatureValue() float64 {
	if l.Temperature == nil {
		return defaultTemperature
	}
	return *l.Temperature
}

type ProcessorConfig struct {
	ChunkSize int `yaml:"chunk_size"`
}

type RetrievalConfig struct {
	TopK         int           `yaml:"top_k"`
	Workers      int           `yaml:"workers"`
	RateLimit    float64       `yaml:"rate_limit"`
	EmbedTimeout time.Duration `yaml:"embed_timeout"`
	// Normalize defaults to true when unset.
	Normalize *bool         `yaml:"normalize"`
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

func (r RetrievalConfig) NormalizeEnabled() bool {
	return r.Normalize == nil || *r.Normalize
}

type ScraperConfig struct {
	// MaxDepth defaults to 1 when unset; 0 fetches only the start page.
	MaxDepth          *int          `yaml:"max_depth"`
	RateLimit         float64       `yaml:"rate_limit"`
	Timeout           time.Duration `yaml:"timeout"`
	IgnorePatterns    []string      `yaml:"ignore_patterns"`
	AllowedExtensions []string      `yaml:"allowed_extensions"`
}

func (s ScraperConfig) MaxDepthValue() int {
	if s.MaxDepth == nil {
		return defaultMaxDepth
	}
	return *s.MaxDepth
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type UIConfig struct {
	// Color is one of auto, always or never.
	Color string `yaml:"color"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Processor ProcessorConfig `yaml:"processor"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Log       LogConfig       `yaml:"log"`
	UI        UIConfig        `yaml:"ui"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/ragmem/config.yaml"),
			"/etc/ragmem/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Addr == "" {
		config.Server.Addr = ":5000"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 30 * time.Second
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 2 * time.Minute
	}
	if len(config.Server.CORSOrigins) == 0 {
		config.Server.CORSOrigins = []string{"*"}
	}

	if config.LLM.Provider == "" {
		config.LLM.Provider = ProviderOllama
	}
	switch config.LLM.Provider {
	case ProviderOllama:
		if config.LLM.BaseURL == "" {
			config.LLM.BaseURL = "http://localhost:11434"
		}
		if config.LLM.Model == "" {
			config.LLM.Model = "mistral"
		}
		if config.LLM.EmbedModel == "" {
			config.LLM.EmbedModel = "nomic-embed-text:latest"
		}
	case ProviderOpenAI:
		if config.LLM.Model == "" {
			config.LLM.Model = "gpt-4o-mini"
		}
		if config.LLM.EmbedModel == "" {
			config.LLM.EmbedModel = "text-embedding-3-small"
		}
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == nil {
		t := defaultTemperature
		config.LLM.Temperature = &t
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 800
	}

	if config.Retrieval.TopK == 0 {
		config.Retrieval.TopK = 3
	}
	if config.Retrieval.Workers == 0 {
		config.Retrieval.Workers = 4
	}
	if config.Retrieval.CacheSize == 0 {
		config.Retrieval.CacheSize = 1024
	}
	if config.Retrieval.CacheTTL == 0 {
		config.Retrieval.CacheTTL = time.Hour
	}

	if config.Scraper.MaxDepth == nil {
		d := defaultMaxDepth
		config.Scraper.MaxDepth = &d
	}
	if config.Scraper.RateLimit == 0 {
		config.Scraper.RateLimit = 2.0
	}
	if config.Scraper.Timeout == 0 {
		config.Scraper.Timeout = 30 * time.Second
	}
	if len(config.Scraper.AllowedExtensions) == 0 {
		config.Scraper.AllowedExtensions = []string{".html", ".htm"}
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}

	if config.UI.Color == "" {
		config.UI.Color = "auto"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && config.LLM.Provider != ProviderOpenAI {
		config.LLM.BaseURL = baseURL
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.LLM.APIKey == "" {
		config.LLM.APIKey = apiKey
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Addr = ":" + port
	}
	if addr := os.Getenv("RAGMEM_ADDR"); addr != "" {
		config.Server.Addr = addr
	}
}
