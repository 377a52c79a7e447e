package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		LLMProvider:    "openai",
		OpenAIKey:      "sk-test",
		LLMTimeout:     "60s",
		StoreBackend:   "json",
		StorePath:      "./user_profiles.json",
		TipCron:        "0 5 * * *",
		BroadcastDelay: "1s",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_MissingOpenAIKey(t *testing.T) {
	c := validConfig()
	c.OpenAIKey = ""
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing OpenAI key")
	}
}

func TestValidate_AnthropicAcceptsToken(t *testing.T) {
	c := validConfig()
	c.LLMProvider = "anthropic"
	if err := c.Validate(); err == nil {
		t.Error("expected error with no anthropic credential")
	}
	c.AnthropicToken = "oauth"
	if err := c.Validate(); err != nil {
		t.Errorf("token should satisfy anthropic: %v", err)
	}
}

func TestValidate_OllamaNeedsNoKey(t *testing.T) {
	c := validConfig()
	c.LLMProvider = "ollama"
	c.OpenAIKey = ""
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	c := validConfig()
	c.LLMProvider = "carrier-pigeon"
	if err := c.Validate(); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	c := validConfig()
	c.StoreBackend = "redis"
	if err := c.Validate(); err == nil {
		t.Error("expected error for unknown store backend")
	}
}

func TestValidate_BadDurations(t *testing.T) {
	c := validConfig()
	c.BroadcastDelay = "soon"
	if err := c.Validate(); err == nil {
		t.Error("expected error for unparsable delay")
	}
	c = validConfig()
	c.LLMTimeout = "-5s"
	if err := c.Validate(); err == nil {
		t.Error("expected error for negative timeout")
	}
}

func TestDelay(t *testing.T) {
	d, err := validConfig().Delay()
	if err != nil || d != time.Second {
		t.Errorf("Delay = %v, %v", d, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"LLM_PROVIDER", "PROFILE_STORE_BACKEND", "PROFILE_STORE_PATH", "DAILY_TIP_CRON", "BROADCAST_DELAY", "LLM_TIMEOUT"} {
		t.Setenv(k, "")
	}
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	c := Load()
	if c.LLMProvider != "openai" {
		t.Errorf("provider = %q", c.LLMProvider)
	}
	if c.StorePath != "./user_profiles.json" || c.StoreBackend != "json" {
		t.Errorf("store = %q %q", c.StoreBackend, c.StorePath)
	}
	if c.TipCron != "0 5 * * *" {
		t.Errorf("cron = %q", c.TipCron)
	}
}

func TestProvider_CarriesCredentials(t *testing.T) {
	c := validConfig()
	c.LLMProvider = "anthropic"
	c.AnthropicToken = "oauth"
	c.LLMModel = "claude-x"
	p := c.Provider()
	if p.Provider != "anthropic" || p.AnthropicToken != "oauth" || p.OpenAIKey != "sk-test" || p.Model != "claude-x" {
		t.Errorf("provider config = %+v", p)
	}
}

func TestValidateStore_IgnoresLLM(t *testing.T) {
	c := validConfig()
	c.OpenAIKey = ""
	if err := c.ValidateStore(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	c.StorePath = ""
	if err := c.ValidateStore(); err == nil {
		t.Error("expected error for empty store path")
	}
}
