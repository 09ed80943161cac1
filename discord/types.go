package discord

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

// ErrChannelNotInGuild is returned when a channel does not belong to the
// guild a message is addressed to.
var ErrChannelNotInGuild = errors.New("channel not found in guild")

// Discord defines the interface for the Discord client.
type Discord interface {
	SendMessage(guildID, channelID, msg string) error
	Start(ctx context.Context) error
	Stop() error
}

// Session is the subset of *discordgo.Session the client uses.
type Session interface {
	Open() error
	Close() error
	AddHandler(handler interface{}) func()
	UpdateGameStatus(idle int, name string) error
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

var _ Session = (*discordgo.Session)(nil)
