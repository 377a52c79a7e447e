package broadcast

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chris/bloom/internal/profile"
)

type fakeSender struct {
	to   []string
	text []string
	fail map[string]bool
}

func (f *fakeSender) Send(ctx context.Context, userID, text string, choices ...string) error {
	if f.fail[userID] {
		return errors.New("forbidden: cannot DM user")
	}
	f.to = append(f.to, userID)
	f.text = append(f.text, text)
	return nil
}

// fakeLLM fails on the nth call (1-based) when failOn > 0.
type fakeLLM struct {
	calls  int
	failOn int
	users  []string
}

func (f *fakeLLM) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	f.users = append(f.users, user)
	if f.calls == f.failOn {
		return "", errors.New("llm unavailable")
	}
	return "- eat leafy greens", nil
}

func newStore(t *testing.T, ids ...string) *profile.Store {
	t.Helper()
	f, err := profile.OpenJSONFile(filepath.Join(t.TempDir(), "profiles.json"))
	if err != nil {
		t.Fatal(err)
	}
	s := profile.NewStore(f)
	for _, id := range ids {
		if _, err := s.Save(context.Background(), id, profile.Profile{
			profile.Age: "30", profile.Ethnicity: "Asian", profile.Gender: "Female", profile.Stage: "Postpartum",
		}); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func newTestBroadcaster(store *profile.Store, llm Completer, out Sender) (*Broadcaster, *[]time.Duration) {
	var pauses []time.Duration
	b := New(store, llm, out, time.Second)
	b.sleep = func(ctx context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return ctx.Err()
	}
	return b, &pauses
}

// --- Run ---

func TestRun_EmptyStore(t *testing.T) {
	out := &fakeSender{}
	llm := &fakeLLM{}
	b, pauses := newTestBroadcaster(newStore(t), llm, out)

	rep, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Sent() != 0 || rep.Failed() != 0 || len(rep.Results) != 0 {
		t.Errorf("report = %+v, want zero sends", rep)
	}
	if len(out.to) != 0 || llm.calls != 0 || len(*pauses) != 0 {
		t.Error("empty store should do nothing")
	}
}

func TestRun_AllSucceed(t *testing.T) {
	out := &fakeSender{}
	llm := &fakeLLM{}
	b, pauses := newTestBroadcaster(newStore(t, "3", "1", "2"), llm, out)

	rep, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Sent() != 3 {
		t.Errorf("sent = %d, want 3", rep.Sent())
	}
	if strings.Join(out.to, ",") != "1,2,3" {
		t.Errorf("delivery order = %v, want ascending ids", out.to)
	}
	if len(*pauses) != 2 {
		t.Errorf("expected a pause between each pair of users, got %d", len(*pauses))
	}
	if !strings.Contains(llm.users[0], "who is in Postpartum of pregnancy") {
		t.Errorf("tip prompt should be personalized: %q", llm.users[0])
	}
	if rep.RunID == "" {
		t.Error("report should carry a run id")
	}
}

func TestRun_OnlyUsers(t *testing.T) {
	out := &fakeSender{}
	llm := &fakeLLM{}
	b, pauses := newTestBroadcaster(newStore(t, "1", "2", "local"), llm, out)
	OnlyUsers("local", "absent")(b)

	rep, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Join(out.to, ",") != "local" || rep.Sent() != 1 {
		t.Errorf("sent to %v, report %+v", out.to, rep)
	}
	if llm.calls != 1 || len(*pauses) != 0 {
		t.Errorf("calls = %d, pauses = %d", llm.calls, len(*pauses))
	}
}

func TestRun_OnlyUsersNoneStored(t *testing.T) {
	out := &fakeSender{}
	b, _ := newTestBroadcaster(newStore(t, "1"), &fakeLLM{}, out)
	OnlyUsers("local")(b)

	rep, err := b.Run(context.Background())
	if err != nil || len(rep.Results) != 0 || len(out.to) != 0 {
		t.Errorf("report = %+v, err = %v, sent = %v", rep, err, out.to)
	}
}

func TestRun_LLMFailureIsIsolated(t *testing.T) {
	out := &fakeSender{}
	llm := &fakeLLM{failOn: 2}
	b, _ := newTestBroadcaster(newStore(t, "1", "2", "3"), llm, out)

	rep, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if llm.calls != 3 {
		t.Errorf("every user should be attempted, calls = %d", llm.calls)
	}
	if strings.Join(out.to, ",") != "1,3" {
		t.Errorf("delivered to %v, want 1 and 3", out.to)
	}
	if rep.Sent() != 2 || rep.Failed() != 1 {
		t.Errorf("sent=%d failed=%d, want 2/1", rep.Sent(), rep.Failed())
	}
	if rep.Results[1].UserID != "2" || rep.Results[1].Err == nil {
		t.Errorf("result[1] = %+v, want failure for user 2", rep.Results[1])
	}
}

func TestRun_TransportFailureIsIsolated(t *testing.T) {
	out := &fakeSender{fail: map[string]bool{"1": true}}
	b, _ := newTestBroadcaster(newStore(t, "1", "2"), &fakeLLM{}, out)

	rep, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Sent() != 1 || rep.Failed() != 1 {
		t.Errorf("sent=%d failed=%d", rep.Sent(), rep.Failed())
	}
	if rep.Results[0].Err == nil {
		t.Error("user 1 should have failed")
	}
}

func TestRun_CancelledDuringPause(t *testing.T) {
	out := &fakeSender{}
	b, _ := newTestBroadcaster(newStore(t, "1", "2", "3"), &fakeLLM{}, out)
	ctx, cancel := context.WithCancel(context.Background())
	b.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	rep, err := b.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
	if len(rep.Results) != 1 {
		t.Errorf("expected only the first user attempted, got %d", len(rep.Results))
	}
}

// --- sleep ---

func TestSleep_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("sleep = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("sleep should return immediately on a cancelled context")
	}
}

func TestSleep_Elapses(t *testing.T) {
	if err := sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("sleep = %v", err)
	}
}
