// Package profile holds the user profile collected by the dialogue and the
// store that persists it.
package profile

import "strings"

// Attribute keys.
const (
	Age         = "age"
	Ethnicity   = "ethnicity"
	Gender      = "gender"
	Stage       = "stage"
	Country     = "country"
	Experience  = "experience"
	LastUpdated = "last_updated"
)

// NotApplicable is the stage recorded for users who are never asked about
// pregnancy stage.
const NotApplicable = "n/a"

// Fields lists the collected attributes in the order they are asked.
var Fields = []string{Age, Ethnicity, Gender, Stage, Country, Experience}

// Profile maps attribute names to their raw text values. Absent attributes
// read as the empty string.
type Profile map[string]string

// Get returns the value for key, or "" if the attribute is absent.
func (p Profile) Get(key string) string {
	return p[key]
}

// Clone returns a shallow copy that is safe to mutate.
func (p Profile) Clone() Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Normalize applies the stage rule: male users always carry stage "n/a".
func (p Profile) Normalize() {
	if IsMale(p[Gender]) {
		p[Stage] = NotApplicable
	}
}

// IsMale reports whether a gender answer skips the stage question.
func IsMale(gender string) bool {
	return strings.ToLower(gender) == "male"
}

// HasStage reports whether the profile carries a pregnancy stage worth
// mentioning in a prompt.
func (p Profile) HasStage() bool {
	s := p[Stage]
	return s != "" && s != NotApplicable
}

// Matches reports whether every criterion equals the profile's value. A
// criterion naming an absent attribute never matches.
func (p Profile) Matches(criteria map[string]string) bool {
	for k, want := range criteria {
		got, ok := p[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Entry pairs a profile with the user it belongs to.
type Entry struct {
	UserID  string  `json:"user_id"`
	Profile Profile `json:"profile"`
}
