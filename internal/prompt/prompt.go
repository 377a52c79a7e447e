// Package prompt turns a stored profile and an optional question into the
// system/user message pair sent to the language model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/chris/bloom/internal/profile"
)

// Personas used as the system message.
const (
	AskPersona = "You are an expert on parenting and pregnancy that explains things in an easy to understand way."
	TipPersona = "You are an expert on fertility and pregnancy for parents and expecting parents whose tips are easy to understand and digest."
)

const (
	defaultQuestion = "Give me advice for my situation."
	genericQuestion = "Give me general advice for new parents."

	tipInstruction = "The tips should be less than 100 words in point form and prioritize readability and digestability. " +
		"The tips should revolve around nutrition, fertility windows, supplements, fertility advice, diet and exercise advice."
	genericTip = "Generate a general tip about pregnancy and fertility. " +
		"The tips should be less than 100 words in point form and prioritize readability and digestability."
)

// Request is a two-part prompt: the persona and the user turn.
type Request struct {
	System string
	User   string
}

// BuildAsk builds a question-answering prompt. A nil profile means the user
// has none; an empty question falls back to a default.
func BuildAsk(p profile.Profile, question string) Request {
	if p == nil {
		if question == "" {
			question = genericQuestion
		}
		return Request{System: AskPersona, User: question}
	}

	var b strings.Builder
	age := ageOf(p)
	fmt.Fprintf(&b, "I am %s %s-year-old %s %s. ", article(age), age, p.Get(profile.Ethnicity), p.Get(profile.Gender))
	if p.HasStage() {
		fmt.Fprintf(&b, "I am in %s of pregnancy. ", p.Get(profile.Stage))
	}
	if exp := p.Get(profile.Experience); exp != "" {
		fmt.Fprintf(&b, "I am a %s. ", strings.ToLower(exp))
	}
	if country := p.Get(profile.Country); country != "" {
		fmt.Fprintf(&b, "I am located in %s. ", country)
	}

	if question == "" {
		question = defaultQuestion
	}
	return Request{
		System: AskPersona,
		User:   strings.TrimSpace(b.String()) + "\n\nMy question is: " + question,
	}
}

// BuildTip builds the prompt for a daily tip. A nil profile yields a generic
// tip request.
func BuildTip(p profile.Profile) Request {
	if p == nil {
		return Request{System: TipPersona, User: genericTip}
	}

	var b strings.Builder
	age := ageOf(p)
	fmt.Fprintf(&b, "Generate a tip for %s %s-year-old %s %s", article(age), age, p.Get(profile.Ethnicity), p.Get(profile.Gender))
	if p.HasStage() {
		fmt.Fprintf(&b, " who is in %s of pregnancy", p.Get(profile.Stage))
	}
	b.WriteString(". ")
	if exp := p.Get(profile.Experience); exp != "" {
		fmt.Fprintf(&b, "They are a %s. ", strings.ToLower(exp))
	}
	if country := p.Get(profile.Country); country != "" {
		fmt.Fprintf(&b, "They are located in %s. ", country)
	}
	b.WriteString(tipInstruction)

	return Request{System: TipPersona, User: b.String()}
}

func ageOf(p profile.Profile) string {
	if age := strings.TrimSpace(p.Get(profile.Age)); age != "" {
		return age
	}
	return "unknown age"
}

// article picks "a" or "an" for the spoken form of an age such as "18" or
// "unknown age".
func article(word string) string {
	if word == "" {
		return "a"
	}
	switch {
	case strings.ContainsRune("aeiouAEIOU", rune(word[0])):
		return "an"
	case word[0] == '8':
		return "an"
	case strings.HasPrefix(word, "11") || strings.HasPrefix(word, "18"):
		if len(word) == 2 || (len(word) > 2 && (word[2] < '0' || word[2] > '9')) {
			return "an"
		}
	}
	return "a"
}
