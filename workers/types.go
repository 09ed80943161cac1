package workers

import "context"

// Worker is a background job started and stopped with the bot.
type Worker interface {
	Start(ctx context.Context) error
	Stop()
}

// Sender delivers a text message to a channel of a guild.
type Sender interface {
	SendMessage(guildID, channelID, msg string) error
}

// WarningMessage is delivered in place of a report when a check fails.
const WarningMessage = ":warning: Something bad happened."
