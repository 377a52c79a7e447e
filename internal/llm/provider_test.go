package llm

import "testing"

func TestNewClient_UnknownProvider(t *testing.T) {
	if _, err := NewClient(ProviderConfig{Provider: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewClient_KnownProviders(t *testing.T) {
	for _, p := range []string{ProviderOpenAI, ProviderAnthropic, ProviderOllama} {
		c, err := NewClient(ProviderConfig{Provider: p, OpenAIKey: "k", AnthropicKey: "k"})
		if err != nil || c == nil {
			t.Errorf("NewClient(%s) = %v, %v", p, c, err)
		}
	}
}

func TestNewClient_OpenAIDefaultModel(t *testing.T) {
	c, err := NewClient(ProviderConfig{Provider: ProviderOpenAI, OpenAIKey: "k"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := c.(*OpenAIClient).model; got != DefaultOpenAIModel {
		t.Errorf("model = %q, want %q", got, DefaultOpenAIModel)
	}
}

func TestNewClient_ExplicitModelWins(t *testing.T) {
	c, err := NewClient(ProviderConfig{Provider: ProviderOllama, Model: "mistral"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := c.(*OpenAIClient).model; got != "mistral" {
		t.Errorf("model = %q", got)
	}
}

func TestResolvedModel(t *testing.T) {
	cases := map[string]string{
		ProviderOpenAI:    "gpt-4o-mini",
		ProviderAnthropic: DefaultAnthropicModel,
		ProviderOllama:    "llama3.1",
		"unknown":         "",
	}
	for provider, want := range cases {
		if got := (ProviderConfig{Provider: provider}).ResolvedModel(); got != want {
			t.Errorf("%s: model = %q, want %q", provider, got, want)
		}
	}
}

func TestCheckCredentials(t *testing.T) {
	if err := (ProviderConfig{Provider: ProviderOpenAI}).CheckCredentials(); err == nil {
		t.Error("openai without key should fail")
	}
	if err := (ProviderConfig{Provider: ProviderAnthropic, AnthropicToken: "t"}).CheckCredentials(); err != nil {
		t.Errorf("anthropic token should satisfy: %v", err)
	}
	if err := (ProviderConfig{Provider: ProviderOllama}).CheckCredentials(); err != nil {
		t.Errorf("ollama needs no credential: %v", err)
	}
	if err := (ProviderConfig{Provider: "nope"}).CheckCredentials(); err == nil {
		t.Error("unknown provider should fail")
	}
}
