package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chris/bloom/config"
	"github.com/chris/bloom/internal/profile"
)

func testApp(t *testing.T, backend string) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	name := "profiles.json"
	if backend == "sqlite" {
		name = "profiles.db"
	}
	return &App{
		Config: &config.Config{
			LLMProvider:    "ollama",
			LLMTimeout:     "5s",
			StoreBackend:   backend,
			StorePath:      filepath.Join(t.TempDir(), name),
			TipCron:        "0 5 * * *",
			BroadcastDelay: "0s",
		},
		Out: &out,
	}, &out
}

func seed(t *testing.T, app *App, profiles map[string]profile.Profile) {
	t.Helper()
	store, err := app.openStore()
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer store.Close()
	for id, p := range profiles {
		if _, err := store.Save(context.Background(), id, p); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
}

func execute(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(app)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

var (
	alice = profile.Profile{
		profile.Age: "29", profile.Ethnicity: "Asian", profile.Gender: "Female",
		profile.Stage: "2nd Trimester", profile.Country: "Japan", profile.Experience: "First-time parent",
	}
	bob = profile.Profile{
		profile.Age: "35", profile.Ethnicity: "Hispanic", profile.Gender: "Male",
		profile.Country: "Mexico", profile.Experience: "Experienced parent",
	}
)

// --- parseWhere ---

func TestParseWhere(t *testing.T) {
	got, err := parseWhere([]string{"gender=Female", " stage = 2nd Trimester "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["gender"] != "Female" || got["stage"] != "2nd Trimester" {
		t.Errorf("criteria = %v", got)
	}
}

func TestParseWhere_Invalid(t *testing.T) {
	for _, in := range []string{"gender", "=Female"} {
		if _, err := parseWhere([]string{in}); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

// --- profile commands ---

func TestProfileList_FiltersJSON(t *testing.T) {
	app, _ := testApp(t, "json")
	seed(t, app, map[string]profile.Profile{"1001": alice, "1002": bob})

	out, err := execute(t, app, "profile", "list", "--where", "gender=Female")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "1001\t") || strings.Contains(out, "1002") {
		t.Errorf("output = %q", out)
	}
}

func TestProfileList_AllSQLite(t *testing.T) {
	app, _ := testApp(t, "sqlite")
	seed(t, app, map[string]profile.Profile{"1002": bob, "1001": alice})

	out, err := execute(t, app, "profile", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i, j := strings.Index(out, "1001"), strings.Index(out, "1002")
	if i < 0 || j < 0 || i > j {
		t.Errorf("want both users in id order, got %q", out)
	}
	if !strings.Contains(out, "stage=n/a") {
		t.Errorf("male profile should list stage=n/a: %q", out)
	}
}

func TestProfileList_NoMatch(t *testing.T) {
	app, _ := testApp(t, "json")
	out, err := execute(t, app, "profile", "list", "--where", "country=Peru")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "no matching profiles") {
		t.Errorf("output = %q", out)
	}
}

func TestProfileShow(t *testing.T) {
	app, _ := testApp(t, "json")
	seed(t, app, map[string]profile.Profile{"1001": alice})

	out, err := execute(t, app, "profile", "show", "1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Your profile:", "- Age: 29", "- Country: Japan", "- Last updated: "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestProfileShow_Unknown(t *testing.T) {
	app, _ := testApp(t, "json")
	if _, err := execute(t, app, "profile", "show", "9999"); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	app, _ := testApp(t, "json")
	app.Config.StoreBackend = "redis"
	if _, err := app.openStore(); err == nil {
		t.Error("expected error for unknown backend")
	}
}

// --- validation ---

func TestRun_InvalidConfigIsFatal(t *testing.T) {
	app, _ := testApp(t, "json")
	app.Config.LLMProvider = "openai" // no key
	_, err := execute(t, app, "run")
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("err = %v", err)
	}
}

func TestBroadcast_RequiresTokenWithoutDryRun(t *testing.T) {
	app, _ := testApp(t, "json")
	_, err := execute(t, app, "broadcast")
	if err == nil || !strings.Contains(err.Error(), "DISCORD_BOT_TOKEN") {
		t.Errorf("err = %v", err)
	}
}

func TestBroadcast_DryRunEmptyStore(t *testing.T) {
	app, _ := testApp(t, "json")
	out, err := execute(t, app, "broadcast", "--dry-run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "0 sent, 0 failed") {
		t.Errorf("output = %q", out)
	}
}

func TestTipDelay(t *testing.T) {
	app, _ := testApp(t, "json")
	app.Config.BroadcastDelay = "2s"
	if d, err := tipDelay(app, false); err != nil || d != 2*time.Second {
		t.Errorf("tipDelay = %v, %v", d, err)
	}
	if d, err := tipDelay(app, true); err != nil || d != 0 {
		t.Errorf("dry-run tipDelay = %v, %v", d, err)
	}
	app.Config.BroadcastDelay = "soon"
	if _, err := tipDelay(app, true); err == nil {
		t.Error("expected error for unparsable delay")
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	app, _ := testApp(t, "json")
	root := newRootCmd(app)
	for _, name := range []string{"run", "ask", "profile", "broadcast", "service"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
}
