package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// supported llm providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderRelay  = "relay"
)

// supported retrieval modes
const (
	ModeBuffered  = "buffered"
	ModeStreaming = "streaming"
)

// Config holds the application configuration
type Config struct {
	Server ServerConfig `yaml:"server" json:"server" jsonschema:"description=Server configuration"`
	LLM    LLMConfig    `yaml:"llm" json:"llm" jsonschema:"description=Generative backend configuration"`
	Output struct {
		Dir string `yaml:"dir" json:"dir" jsonschema:"default=.,description=Directory for downloaded feeds"`
	} `yaml:"output" json:"output" jsonschema:"description=Output configuration"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server read timeout"`
}

// LLMConfig holds generative backend settings
type LLMConfig struct {
	Provider    string        `yaml:"provider" json:"provider" jsonschema:"enum=gemini,enum=openai,enum=relay,default=gemini,description=Generative backend provider"`
	Mode        string        `yaml:"mode" json:"mode" jsonschema:"enum=buffered,enum=streaming,default=streaming,description=Response retrieval mode"`
	Model       string        `yaml:"model" json:"model" jsonschema:"description=Model name (e.g. gemini-2.5-flash or gpt-4o-mini)"`
	APIKey      string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Endpoint    string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=API base URL override, relay generate URL for relay provider"`
	Temperature float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0,minimum=0,maximum=2,description=Temperature for response generation, 0 for model default"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=0,description=Maximum tokens in response, 0 for model default"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=5m,description=Request timeout"`
	Attempts    int           `yaml:"attempts" json:"attempts" jsonschema:"default=1,minimum=1,description=Attempts on transport failures in buffered mode"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return finalize(&cfg)
}

// Default makes configuration from defaults and environment only
func Default() (*Config, error) {
	return finalize(&Config{})
}

// finalize sets defaults and validates the configuration
func finalize(cfg *Config) (*Config, error) {
	setDefaults(cfg)

	// validate configuration
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	// set defaults for server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// set defaults for LLM
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderGemini
	}
	if cfg.LLM.Mode == "" {
		cfg.LLM.Mode = ModeStreaming
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 5 * time.Minute
	}
	if cfg.LLM.Attempts == 0 {
		cfg.LLM.Attempts = 1
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = apiKeyFromEnv(cfg.LLM.Provider)
	}

	// set defaults for output
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
}

// apiKeyFromEnv looks up the provider's conventional environment variables
func apiKeyFromEnv(provider string) string {
	var names []string
	switch provider {
	case ProviderGemini:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"}
	case ProviderOpenAI:
		names = []string{"OPENAI_API_KEY", "API_KEY"}
	}
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// validate checks configuration for correctness.
// A missing API key is not an error here, backends report it when constructed.
func validate(cfg *Config) error {

	// validate LLM config
	switch cfg.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderRelay:
	default:
		return fmt.Errorf("llm.provider must be one of %s, %s, %s", ProviderGemini, ProviderOpenAI, ProviderRelay)
	}
	if cfg.LLM.Mode != ModeBuffered && cfg.LLM.Mode != ModeStreaming {
		return fmt.Errorf("llm.mode must be %s or %s", ModeBuffered, ModeStreaming)
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if cfg.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens must be non-negative")
	}
	if cfg.LLM.Attempts < 1 {
		return fmt.Errorf("llm.attempts must be at least 1")
	}
	if cfg.LLM.Timeout < time.Second {
		return fmt.Errorf("llm timeout must be at least 1 second")
	}

	// validate server config
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetLLMConfig returns LLM configuration
func (c *Config) GetLLMConfig() LLMConfig {
	return c.LLM
}
