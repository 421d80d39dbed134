// Package discord wires the gateway to the tracker and implements the
// channel-log and identity collaborators over the Discord REST API.
package discord

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"admintime/internal/dashboard"
	"admintime/internal/storelog"
	"admintime/internal/tracker"
)

// logPageSize is the Discord API maximum for one messages fetch.
const logPageSize = 100

// Bot owns the gateway session and forwards voice-state changes to the
// tracker.
type Bot struct {
	session   *discordgo.Session
	guildID   string
	channelID string
	tracker   *tracker.Tracker
}

// New creates the gateway session. The tracker is attached later with
// Attach because the reconciler (which the tracker persists through) needs
// the bot's channel log first.
func New(token, guildID, channelID string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers

	return &Bot{
		session:   session,
		guildID:   guildID,
		channelID: channelID,
	}, nil
}

// Attach registers the tracker and the voice-state handler.
func (b *Bot) Attach(t *tracker.Tracker) {
	b.tracker = t
	b.session.AddHandler(b.voiceStateUpdate)
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	log.Println("discord: gateway connected")
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	return b.session.Close()
}

// voiceStateUpdate translates a gateway voice-state change into a tracker
// event. Events outside the configured guild are dropped here.
func (b *Bot) voiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs.GuildID != b.guildID {
		return
	}

	prevChannel := ""
	if vs.BeforeUpdate != nil {
		prevChannel = vs.BeforeUpdate.ChannelID
	}

	b.tracker.HandleEvent(tracker.Event{
		AdminID:     vs.UserID,
		PrevChannel: prevChannel,
		NewChannel:  vs.ChannelID,
		Roles:       b.memberRoles(vs),
	})
}

func (b *Bot) memberRoles(vs *discordgo.VoiceStateUpdate) []string {
	if vs.Member != nil {
		return vs.Member.Roles
	}
	member, err := b.member(vs.UserID)
	if err != nil {
		log.Printf("discord: fetch member %s: %v", vs.UserID, err)
		return nil
	}
	return member.Roles
}

func (b *Bot) member(userID string) (*discordgo.Member, error) {
	if member, err := b.session.State.Member(b.guildID, userID); err == nil {
		return member, nil
	}
	return b.session.GuildMember(b.guildID, userID)
}

// ChannelLog returns the storelog collaborator backed by the configured
// database channel.
func (b *Bot) ChannelLog() storelog.ChannelLog {
	return &channelLog{session: b.session, channelID: b.channelID}
}

type channelLog struct {
	session   *discordgo.Session
	channelID string
}

func (c *channelLog) ListPage(beforeID string) ([]storelog.Message, error) {
	messages, err := c.session.ChannelMessages(c.channelID, logPageSize, beforeID, "", "")
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	out := make([]storelog.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, storelog.Message{ID: m.ID, Body: m.Content})
	}
	return out, nil
}

func (c *channelLog) Create(body string) (string, error) {
	msg, err := c.session.ChannelMessageSend(c.channelID, body)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return msg.ID, nil
}

func (c *channelLog) Edit(id, body string) error {
	if _, err := c.session.ChannelMessageEdit(c.channelID, id, body); err != nil {
		return fmt.Errorf("edit message %s: %w", id, err)
	}
	return nil
}

func (c *channelLog) Pin(id string) error {
	if err := c.session.ChannelMessagePin(c.channelID, id); err != nil {
		return fmt.Errorf("pin message %s: %w", id, err)
	}
	return nil
}

// ResolveName implements storelog.NameResolver: guild nickname first,
// account username otherwise.
func (b *Bot) ResolveName(adminID string) (string, error) {
	member, err := b.member(adminID)
	if err == nil {
		if member.Nick != "" {
			return member.Nick, nil
		}
		if member.User != nil {
			return member.User.Username, nil
		}
	}

	user, uerr := b.session.User(adminID)
	if uerr != nil {
		return "", fmt.Errorf("resolve name for %s: %w", adminID, uerr)
	}
	return user.Username, nil
}

// FetchProfile implements dashboard.ProfileFetcher.
func (b *Bot) FetchProfile(adminID string) (dashboard.Profile, error) {
	user, err := b.session.User(adminID)
	if err != nil {
		return dashboard.Profile{}, fmt.Errorf("fetch user %s: %w", adminID, err)
	}

	name := user.Username
	if member, merr := b.member(adminID); merr == nil && member.Nick != "" {
		name = member.Nick
	}

	return dashboard.Profile{
		Name:      name,
		AvatarURL: user.AvatarURL("128"),
	}, nil
}
