package discord

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/chris/bloom/internal/dialogue"
)

const choicePrefix = "choice:"

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore own messages and other bots
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}

	// Only respond to DMs or when mentioned
	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return
	}

	content := strings.TrimSpace(stripMention(m.Content, s.State.User.ID))
	if content == "" {
		return
	}
	b.dispatch(dialogue.NewEvent(m.Author.ID, content))
}

// onInteraction handles clicks on choice buttons. The buttons are removed
// once clicked and the choice is handled as if the user had typed it.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	choice, ok := choiceFromCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}
	user := interactionUser(i)
	if user == nil {
		return
	}

	content := ""
	if i.Message != nil {
		content = i.Message.Content
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content + "\n> " + choice,
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		log.Printf("discord: acknowledging choice from %s: %v", user.ID, err)
	}

	b.dispatch(dialogue.Event{UserID: user.ID, Text: choice})
}

func (b *Bot) dispatch(ev dialogue.Event) {
	if b.handler == nil {
		return
	}
	ctx := b.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}
	if err := b.handler.Handle(ctx, ev); err != nil {
		log.Printf("discord: handling message from %s: %v", ev.UserID, err)
	}
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// choiceComponents lays out choices as buttons, five per row.
func choiceComponents(choices []string) []discordgo.MessageComponent {
	if len(choices) == 0 {
		return nil
	}
	var rows []discordgo.MessageComponent
	for start := 0; start < len(choices); start += 5 {
		end := start + 5
		if end > len(choices) {
			end = len(choices)
		}
		var buttons []discordgo.MessageComponent
		for _, c := range choices[start:end] {
			buttons = append(buttons, discordgo.Button{
				Label:    c,
				Style:    discordgo.PrimaryButton,
				CustomID: choicePrefix + c,
			})
		}
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}

func choiceFromCustomID(id string) (string, bool) {
	choice, ok := strings.CutPrefix(id, choicePrefix)
	if !ok || choice == "" {
		return "", false
	}
	return choice, true
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

// splitMessage cuts s into chunks of at most maxLen bytes, preferring to
// break after a newline and never inside a UTF-8 sequence.
func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := len(s)
		if end > maxLen {
			end = maxLen
			for end > 0 && !utf8.RuneStart(s[end]) {
				end--
			}
			if end == 0 {
				_, end = utf8.DecodeRuneInString(s)
			}
			if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
				end = idx + 1
			}
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}
