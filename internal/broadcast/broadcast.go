// Package broadcast sends a personalized tip to every stored profile.
package broadcast

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chris/bloom/internal/profile"
	"github.com/chris/bloom/internal/prompt"
	"github.com/google/uuid"
)

// Sender delivers a message to one user.
type Sender interface {
	Send(ctx context.Context, userID, text string, choices ...string) error
}

// Completer answers a prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Result is the outcome for one recipient.
type Result struct {
	UserID string
	Err    error
}

// Report collects the outcome of one broadcast run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
}

func (r Report) Sent() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

func (r Report) Failed() int {
	return len(r.Results) - r.Sent()
}

// Broadcaster fans a tip out to every user in the store.
type Broadcaster struct {
	store *profile.Store
	llm   Completer
	out   Sender
	delay time.Duration
	only  map[string]bool // nil means every stored user
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// OnlyUsers restricts the broadcast to the given user ids, for transports
// that can reach only some of the stored users.
func OnlyUsers(ids ...string) Option {
	return func(b *Broadcaster) {
		b.only = make(map[string]bool, len(ids))
		for _, id := range ids {
			b.only[id] = true
		}
	}
}

func New(store *profile.Store, llm Completer, out Sender, delay time.Duration, opts ...Option) *Broadcaster {
	b := &Broadcaster{store: store, llm: llm, out: out, delay: delay, sleep: sleep}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Broadcaster) recipients(entries []profile.Entry) []profile.Entry {
	if b.only == nil {
		return entries
	}
	var out []profile.Entry
	for _, e := range entries {
		if b.only[e.UserID] {
			out = append(out, e)
		}
	}
	return out
}

// Run sends one tip per stored profile in user id order, pausing between
// recipients. A failure for one user is recorded and does not stop the run.
// Only a failure to read the store or a cancelled context ends it early.
func (b *Broadcaster) Run(ctx context.Context) (Report, error) {
	rep := Report{RunID: uuid.NewString()[:8], StartedAt: time.Now()}
	label := fmt.Sprintf("broadcast[%s]", rep.RunID)

	entries, err := b.store.All(ctx)
	if err != nil {
		return rep, fmt.Errorf("listing profiles: %w", err)
	}
	entries = b.recipients(entries)
	if len(entries) == 0 {
		log.Printf("%s: no users found to send daily tips", label)
		rep.FinishedAt = time.Now()
		return rep, nil
	}

	log.Printf("%s: sending daily tip to %d user(s)", label, len(entries))
	for i, e := range entries {
		if i > 0 && b.delay > 0 {
			if err := b.sleep(ctx, b.delay); err != nil {
				rep.FinishedAt = time.Now()
				return rep, fmt.Errorf("%s: interrupted after %d user(s): %w", label, i, err)
			}
		}
		err := b.deliver(ctx, e)
		if err != nil {
			log.Printf("%s: failed to send tip to user %s: %v", label, e.UserID, err)
		} else {
			log.Printf("%s: sent daily tip to user %s", label, e.UserID)
		}
		rep.Results = append(rep.Results, Result{UserID: e.UserID, Err: err})
	}

	rep.FinishedAt = time.Now()
	log.Printf("%s: finished, %d sent, %d failed", label, rep.Sent(), rep.Failed())
	return rep, nil
}

func (b *Broadcaster) deliver(ctx context.Context, e profile.Entry) error {
	req := prompt.BuildTip(e.Profile)
	tip, err := b.llm.Complete(ctx, req.System, req.User)
	if err != nil {
		return fmt.Errorf("generating tip: %w", err)
	}
	if err := b.out.Send(ctx, e.UserID, tip); err != nil {
		return fmt.Errorf("delivering tip: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
