package llm

// charsPerToken approximates English text; only used for logging request
// size, never for limits.
const charsPerToken = 4

// EstimateTokens returns a rough token count for a string.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + charsPerToken - 1) / charsPerToken // round up
}

// EstimateMessageTokens returns the estimated token count for a single
// message, including per-message framing.
func EstimateMessageTokens(m Message) int {
	return 4 + EstimateTokens(m.Content)
}

// EstimatePromptTokens returns the estimated tokens for a system prompt plus
// its messages.
func EstimatePromptTokens(systemPrompt string, messages []Message) int {
	total := EstimateTokens(systemPrompt)
	for _, m := range messages {
		total += EstimateMessageTokens(m)
	}
	return total
}
