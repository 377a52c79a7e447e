package dialogue

import (
	"fmt"
	"strings"
	"time"

	"github.com/chris/bloom/internal/profile"
	"github.com/dustin/go-humanize"
)

var fieldLabels = map[string]string{
	profile.Age:        "Age",
	profile.Ethnicity:  "Ethnicity",
	profile.Gender:     "Gender",
	profile.Stage:      "Stage",
	profile.Country:    "Country",
	profile.Experience: "Experience",
}

func writeFields(b *strings.Builder, p profile.Profile) {
	for _, f := range profile.Fields {
		v := p.Get(f)
		if v == "" {
			v = "not set"
		}
		fmt.Fprintf(b, "- %s: %s\n", fieldLabels[f], v)
	}
}

func renderWelcomeBack(p profile.Profile) string {
	var b strings.Builder
	b.WriteString("Welcome back! I already have your profile:\n\n")
	writeFields(&b, p)
	b.WriteString("\nLet's update it from the top. Send /cancel to keep it as it is.\n")
	b.WriteString(askAge)
	return b.String()
}

func renderSaved(p profile.Profile) string {
	var b strings.Builder
	b.WriteString("Thanks! Your profile has been saved.\n\nProfile saved:\n")
	writeFields(&b, p)
	return strings.TrimRight(b.String(), "\n")
}

// RenderProfile formats a stored profile for viewing, with the save time
// shown relative to now.
func RenderProfile(p profile.Profile, now time.Time) string {
	var b strings.Builder
	b.WriteString("Your profile:\n")
	writeFields(&b, p)
	fmt.Fprintf(&b, "- Last updated: %s", renderUpdated(p.Get(profile.LastUpdated), now))
	return b.String()
}

// isoLocal covers timestamps written without a zone, such as Python's
// datetime.isoformat().
const isoLocal = "2006-01-02T15:04:05.999999"

func renderUpdated(raw string, now time.Time) string {
	if raw == "" {
		return "N/A"
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse(isoLocal, raw); err != nil {
			return raw
		}
	}
	return fmt.Sprintf("%s (%s)", raw, humanize.RelTime(t, now, "ago", "from now"))
}
