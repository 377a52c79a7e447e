package dialogue

import "strings"

// Command names a user-facing entry point.
type Command string

const (
	CmdStart   Command = "start"
	CmdCancel  Command = "cancel"
	CmdProfile Command = "profile"
	CmdAsk     Command = "ask"
	CmdHelp    Command = "help"
)

// Event is one inbound message from a chat transport.
type Event struct {
	UserID  string
	Text    string
	Command Command // empty for free text
}

// NewEvent classifies raw text as a command or free text.
func NewEvent(userID, text string) Event {
	ev := Event{UserID: userID, Text: strings.TrimSpace(text)}
	if cmd, ok := ParseCommand(ev.Text); ok {
		ev.Command = cmd
	}
	return ev
}

// ParseCommand recognizes "/name" or "!name", case-insensitively, with an
// optional "@bot" suffix and trailing arguments. Unknown names are still
// reported as commands; the Machine decides whether an unknown "!name" is
// really an answer.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || (text[0] != '/' && text[0] != '!') {
		return "", false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", false
	}
	name := fields[0]
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", false
	}
	return Command(strings.ToLower(name)), true
}

func (c Command) known() bool {
	switch c {
	case CmdStart, CmdCancel, CmdProfile, CmdAsk, CmdHelp:
		return true
	}
	return false
}
