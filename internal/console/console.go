// Package console is a chat transport over a terminal, used when no Discord
// token is configured.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chris/bloom/internal/dialogue"
)

const prompt = "bloom> "

// Handler consumes inbound chat events.
type Handler interface {
	Handle(ctx context.Context, ev dialogue.Event) error
}

// Console writes replies to out and reads events from in on behalf of one
// local user. Messages for other users (such as a broadcast) are labelled
// with their id.
type Console struct {
	UserID string

	mu  sync.Mutex
	out io.Writer
}

func New(userID string, out io.Writer) *Console {
	return &Console{UserID: userID, out: out}
}

func (c *Console) Send(ctx context.Context, userID, text string, choices ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if userID != c.UserID {
		if _, err := fmt.Fprintf(c.out, "[to %s]\n", userID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(c.out, text); err != nil {
		return err
	}
	if len(choices) > 0 {
		if _, err := fmt.Fprintf(c.out, "  [%s]\n", strings.Join(choices, " | ")); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) Typing(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, "...")
	return err
}

// Run reads lines from in until EOF, "exit" or "quit", or ctx is done, and
// hands each one to h. Errors from h are printed and do not stop the loop.
// When interactive is false the prompt is not printed.
//
// A cancelled ctx returns immediately even while a read is pending; the
// reader goroutine then exits on the next line or EOF.
func (c *Console) Run(ctx context.Context, in io.Reader, h Handler, interactive bool) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	c.printPrompt(interactive)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			input := strings.TrimSpace(line)
			if input == "exit" || input == "quit" {
				return nil
			}
			if input != "" {
				if err := h.Handle(ctx, dialogue.NewEvent(c.UserID, input)); err != nil {
					c.mu.Lock()
					fmt.Fprintf(c.out, "error: %v\n", err)
					c.mu.Unlock()
				}
			}
			c.printPrompt(interactive)
		}
	}
}

func (c *Console) printPrompt(interactive bool) {
	if !interactive {
		return
	}
	c.mu.Lock()
	fmt.Fprint(c.out, prompt)
	c.mu.Unlock()
}
