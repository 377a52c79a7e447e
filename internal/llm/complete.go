package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// ErrCompletion is the single failure kind callers see from a Completer,
// whatever the provider reported.
var ErrCompletion = errors.New("llm completion failed")

// Completer sends one system/user exchange to a Client with a bounded
// timeout.
type Completer struct {
	client  Client
	name    string
	timeout time.Duration
}

func NewCompleter(client Client, name string, timeout time.Duration) *Completer {
	return &Completer{client: client, name: name, timeout: timeout}
}

// Complete returns the model's reply verbatim. Every failure, including an
// empty reply, wraps ErrCompletion.
func (c *Completer) Complete(ctx context.Context, system, user string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []Message{{Role: "user", Content: user}}
	start := time.Now()
	resp, err := c.client.Chat(ctx, system, messages)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		log.Printf("llm[%s]: failed after %s: %v", c.name, elapsed, err)
		return "", fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		log.Printf("llm[%s]: empty reply after %s", c.name, elapsed)
		return "", fmt.Errorf("%w: empty reply", ErrCompletion)
	}

	log.Printf("llm[%s]: ~%d prompt tokens, %d reply chars in %s",
		c.name, EstimatePromptTokens(system, messages), len(resp.Content), elapsed)
	return resp.Content, nil
}
