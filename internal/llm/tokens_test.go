package llm

import (
	"strings"
	"testing"
)

func TestEstimateTokens_Empty(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestEstimateTokens_RoundsUp(t *testing.T) {
	// 5 chars / 4 = 1.25 -> 2
	if got := EstimateTokens("hello"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestEstimateTokens_ExactMultiple(t *testing.T) {
	if got := EstimateTokens(strings.Repeat("a", 400)); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
}

func TestEstimateMessageTokens_IncludesOverhead(t *testing.T) {
	got := EstimateMessageTokens(Message{Role: "user", Content: ""})
	if got != 4 {
		t.Errorf("expected 4 (overhead only), got %d", got)
	}
}

func TestEstimatePromptTokens(t *testing.T) {
	msgs := []Message{
		{Role: "user", Content: "hello"},   // 4 + 2
		{Role: "assistant", Content: "hi"}, // 4 + 1
	}
	// system "abcd" = 1
	if got := EstimatePromptTokens("abcd", msgs); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
}
