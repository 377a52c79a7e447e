package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chris/bloom/internal/llm"
	"github.com/joho/godotenv"
)

type Config struct {
	LLMProvider    string // openai, anthropic, ollama
	OpenAIKey      string
	AnthropicKey   string // API key (X-Api-Key header)
	AnthropicToken string // OAuth token (Authorization: Bearer header)
	LLMModel       string
	OllamaBaseURL  string
	LLMTimeout     string
	DiscordToken   string
	StoreBackend   string // json, sqlite
	StorePath      string
	TipCron        string
	BroadcastDelay string
}

// ConfigDir is where the installed service keeps its configuration.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bloom")
}

func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config")
}

// Load reads ./.env and then ~/.bloom/config. Values already in the
// environment are never overridden.
func Load() *Config {
	_ = godotenv.Load()             // ignore error if no .env
	_ = godotenv.Load(ConfigFile()) // nor if not installed

	return &Config{
		LLMProvider:    envOr("LLM_PROVIDER", llm.ProviderOpenAI),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicToken: os.Getenv("ANTHROPIC_AUTH_TOKEN"),
		LLMModel:       os.Getenv("LLM_MODEL"),
		OllamaBaseURL:  envOr("OLLAMA_BASE_URL", llm.DefaultOllamaBaseURL),
		LLMTimeout:     envOr("LLM_TIMEOUT", "60s"),
		DiscordToken:   os.Getenv("DISCORD_BOT_TOKEN"),
		StoreBackend:   envOr("PROFILE_STORE_BACKEND", "json"),
		StorePath:      envOr("PROFILE_STORE_PATH", "./user_profiles.json"),
		TipCron:        envOr("DAILY_TIP_CRON", "0 5 * * *"),
		BroadcastDelay: envOr("BROADCAST_DELAY", "1s"),
	}
}

// Validate reports configuration the process cannot start without.
func (c *Config) Validate() error {
	if err := c.Provider().CheckCredentials(); err != nil {
		return err
	}

	if err := c.ValidateStore(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if _, err := c.Delay(); err != nil {
		return err
	}
	return nil
}

// ValidateStore checks only the profile store settings, for commands that
// never reach the LLM.
func (c *Config) ValidateStore() error {
	switch c.StoreBackend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unknown PROFILE_STORE_BACKEND %q", c.StoreBackend)
	}
	if c.StorePath == "" {
		return fmt.Errorf("PROFILE_STORE_PATH is required")
	}
	return nil
}

// Provider returns the LLM settings in the form llm.NewClient takes.
func (c *Config) Provider() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:       c.LLMProvider,
		OpenAIKey:      c.OpenAIKey,
		AnthropicKey:   c.AnthropicKey,
		AnthropicToken: c.AnthropicToken,
		Model:          c.LLMModel,
		OllamaBaseURL:  c.OllamaBaseURL,
	}
}

func (c *Config) Timeout() (time.Duration, error) {
	return parseDuration("LLM_TIMEOUT", c.LLMTimeout)
}

func (c *Config) Delay() (time.Duration, error) {
	return parseDuration("BROADCAST_DELAY", c.BroadcastDelay)
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, v)
	}
	return d, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
