package discord

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/chris/bloom/internal/dialogue"
)

// maxMessageLen is Discord's per-message content limit.
const maxMessageLen = 2000

// Handler consumes inbound chat events.
type Handler interface {
	Handle(ctx context.Context, ev dialogue.Event) error
}

// Bot talks to users over direct messages. It implements the transport used
// by the dialogue and the broadcast.
type Bot struct {
	session *discordgo.Session
	handler Handler
	ctx     context.Context // passed to every handled event; cancelled on shutdown

	mu         sync.Mutex
	dmChannels map[string]string // userID -> DM channel ID
}

func NewBot(token string) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	return &Bot{session: s, dmChannels: make(map[string]string)}, nil
}

// Open registers h for inbound events and connects to the gateway. Events
// are handled under ctx, so cancelling it aborts in-flight replies.
func (b *Bot) Open(ctx context.Context, h Handler) error {
	b.ctx = ctx
	b.handler = h
	b.session.AddHandler(b.onMessage)
	b.session.AddHandler(b.onInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening Discord connection: %w", err)
	}
	log.Printf("discord: connected as %s", b.session.State.User.Username)
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// Send delivers text to the user's DM channel, splitting long text. Choices
// are attached as buttons to the last chunk.
func (b *Bot) Send(ctx context.Context, userID, text string, choices ...string) error {
	channelID, err := b.dmChannel(ctx, userID)
	if err != nil {
		return err
	}
	chunks := splitMessage(text, maxMessageLen)
	for i, chunk := range chunks {
		msg := &discordgo.MessageSend{Content: chunk}
		if i == len(chunks)-1 {
			msg.Components = choiceComponents(choices)
		}
		if _, err := b.session.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("sending message to %s: %w", userID, err)
		}
	}
	return nil
}

// Typing shows the typing indicator in the user's DM channel.
func (b *Bot) Typing(ctx context.Context, userID string) error {
	channelID, err := b.dmChannel(ctx, userID)
	if err != nil {
		return err
	}
	return b.session.ChannelTyping(channelID, discordgo.WithContext(ctx))
}

func (b *Bot) dmChannel(ctx context.Context, userID string) (string, error) {
	b.mu.Lock()
	id, ok := b.dmChannels[userID]
	b.mu.Unlock()
	if ok {
		return id, nil
	}

	ch, err := b.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("opening DM with %s: %w", userID, err)
	}

	b.mu.Lock()
	b.dmChannels[userID] = ch.ID
	b.mu.Unlock()
	return ch.ID, nil
}
