// Package dialogue walks a user through profile collection and the one-shot
// ask conversation.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/chris/bloom/internal/profile"
	"github.com/chris/bloom/internal/prompt"
)

// Transport delivers replies to a user. Choices are suggested answers; the
// user may still type anything.
type Transport interface {
	Send(ctx context.Context, userID, text string, choices ...string) error
	Typing(ctx context.Context, userID string) error
}

// Completer answers a prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const (
	greeting      = "Hi! Let's set up your profile."
	askAge        = "How old are you?"
	askEthnicity  = "What's your ethnicity?"
	askGender     = "What's your gender?"
	askStage      = "What stage are you in?"
	askCountry    = "What country are you in?"
	askExperience = "Are you a first-time parent or experienced?"
	askQuestion   = "What is your question?"

	canceled      = "Operation canceled."
	nothingToStop = "Nothing to cancel."
	noProfile     = "You don't have a profile yet. Use /start to create one."
	saveFailed    = "Sorry, I couldn't save your profile. Please try /start again."
	answerFailed  = "Sorry, I couldn't get an answer right now. Please try /ask again later."
	idleHint      = "Use /help to see what I can do."
	unknownCmd    = "I don't know that command. Use /help to see what I can do."

	helpText = "Use /start to setup/update your profile.\n" +
		"Use /profile to view your profile.\n" +
		"Use /ask to ask a question.\n" +
		"Use /cancel to stop profile setup or asking a question."
)

// Suggested answers shown as quick replies.
var (
	GenderChoices     = []string{"Female", "Male"}
	StageChoices      = []string{"Pre-pregnancy", "1st Trimester", "2nd Trimester", "3rd Trimester", "Postpartum"}
	ExperienceChoices = []string{"First-time parent", "Experienced parent"}
)

// Machine routes events into per-user sessions. Events for the same user are
// handled one at a time; different users proceed independently.
type Machine struct {
	store    *profile.Store
	llm      Completer
	out      Transport
	sessions *Registry
	now      func() time.Time

	locks sync.Map // userID -> *sync.Mutex
}

func NewMachine(store *profile.Store, llm Completer, out Transport) *Machine {
	return &Machine{
		store:    store,
		llm:      llm,
		out:      out,
		sessions: NewRegistry(),
		now:      time.Now,
	}
}

// Sessions exposes the active session registry.
func (m *Machine) Sessions() *Registry { return m.sessions }

func (m *Machine) lock(userID string) func() {
	v, _ := m.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Handle processes one inbound event. The returned error reports a failed
// reply; session state has already advanced by then.
func (m *Machine) Handle(ctx context.Context, ev Event) error {
	unlock := m.lock(ev.UserID)
	defer unlock()

	if ev.Command != "" {
		return m.command(ctx, ev)
	}
	if ev.Text == "" {
		return nil
	}
	sess, ok := m.sessions.Get(ev.UserID)
	if !ok {
		return m.send(ctx, ev.UserID, idleHint)
	}
	return m.advance(ctx, sess, ev.Text)
}

func (m *Machine) command(ctx context.Context, ev Event) error {
	if !ev.Command.known() {
		// "!" is also ordinary punctuation, so inside a dialogue an unknown
		// "!name" is an answer rather than a command.
		if strings.HasPrefix(ev.Text, "!") {
			if sess, ok := m.sessions.Get(ev.UserID); ok {
				return m.advance(ctx, sess, ev.Text)
			}
		}
		return m.send(ctx, ev.UserID, unknownCmd)
	}
	switch ev.Command {
	case CmdStart:
		return m.start(ctx, ev.UserID)
	case CmdCancel:
		if _, ok := m.sessions.End(ev.UserID); !ok {
			return m.send(ctx, ev.UserID, nothingToStop)
		}
		return m.send(ctx, ev.UserID, canceled)
	case CmdProfile:
		return m.viewProfile(ctx, ev.UserID)
	case CmdAsk:
		m.sessions.Begin(ev.UserID, Asking)
		return m.send(ctx, ev.UserID, askQuestion)
	case CmdHelp:
		return m.send(ctx, ev.UserID, helpText)
	}
	return nil
}

// start always re-collects every field, even for users with a stored
// profile.
func (m *Machine) start(ctx context.Context, userID string) error {
	existing, ok, err := m.store.Load(ctx, userID)
	if err != nil {
		log.Printf("dialogue: loading profile for %s: %v", userID, err)
		ok = false
	}
	m.sessions.Begin(userID, AwaitingAge)
	if ok {
		return m.send(ctx, userID, renderWelcomeBack(existing))
	}
	return m.send(ctx, userID, greeting+"\n"+askAge)
}

func (m *Machine) viewProfile(ctx context.Context, userID string) error {
	p, ok, err := m.store.Load(ctx, userID)
	if err != nil {
		log.Printf("dialogue: loading profile for %s: %v", userID, err)
	}
	if !ok {
		return m.send(ctx, userID, noProfile)
	}
	return m.send(ctx, userID, RenderProfile(p, m.now()))
}

func (m *Machine) advance(ctx context.Context, sess *Session, text string) error {
	id := sess.UserID
	switch sess.State {
	case AwaitingAge:
		sess.Profile[profile.Age] = text
		sess.State = AwaitingEthnicity
		return m.send(ctx, id, askEthnicity)

	case AwaitingEthnicity:
		sess.Profile[profile.Ethnicity] = text
		sess.State = AwaitingGender
		return m.send(ctx, id, askGender, GenderChoices...)

	case AwaitingGender:
		sess.Profile[profile.Gender] = text
		if profile.IsMale(text) {
			sess.Profile[profile.Stage] = profile.NotApplicable
			sess.State = AwaitingCountry
			return m.send(ctx, id, askCountry)
		}
		sess.State = AwaitingStage
		return m.send(ctx, id, askStage, StageChoices...)

	case AwaitingStage:
		sess.Profile[profile.Stage] = text
		sess.State = AwaitingCountry
		return m.send(ctx, id, askCountry)

	case AwaitingCountry:
		sess.Profile[profile.Country] = text
		sess.State = AwaitingExperience
		return m.send(ctx, id, askExperience, ExperienceChoices...)

	case AwaitingExperience:
		sess.Profile[profile.Experience] = text
		m.sessions.End(id)
		stored, err := m.store.Save(ctx, id, sess.Profile)
		if err != nil {
			log.Printf("dialogue: saving profile for %s: %v", id, err)
			return errors.Join(err, m.send(ctx, id, saveFailed))
		}
		return m.send(ctx, id, renderSaved(stored))

	case Asking:
		m.sessions.End(id)
		return m.answer(ctx, id, text)
	}
	return fmt.Errorf("session for %s in unexpected state %s", id, sess.State)
}

func (m *Machine) answer(ctx context.Context, userID, question string) error {
	if err := m.out.Typing(ctx, userID); err != nil {
		log.Printf("dialogue: typing indicator for %s: %v", userID, err)
	}

	p, ok, err := m.store.Load(ctx, userID)
	if err != nil {
		log.Printf("dialogue: loading profile for %s: %v", userID, err)
	}
	if !ok {
		p = nil
	}

	req := prompt.BuildAsk(p, question)
	reply, err := m.llm.Complete(ctx, req.System, req.User)
	if err != nil {
		log.Printf("dialogue: answering %s: %v", userID, err)
		return m.send(ctx, userID, answerFailed)
	}
	return m.send(ctx, userID, reply)
}

func (m *Machine) send(ctx context.Context, userID, text string, choices ...string) error {
	if err := m.out.Send(ctx, userID, text, choices...); err != nil {
		return fmt.Errorf("sending to %s: %w", userID, err)
	}
	return nil
}
