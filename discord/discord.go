package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/tnicklin/thimble-bot/config"
	"github.com/tnicklin/thimble-bot/imageresize"
	"github.com/tnicklin/thimble-bot/logger"
	"github.com/tnicklin/thimble-bot/statustracker"
	"golang.org/x/time/rate"
)

var _ Discord = (*DefaultDiscord)(nil)

// maxMessageLength is Discord's limit for a single message.
const maxMessageLength = 2000

type DefaultDiscord struct {
	session        Session
	cfg            config.BotConfig
	resizer        imageresize.Resizer
	statusChecker  statustracker.Checker
	upscaleLimiter *rate.Limiter
	logger         logger.Logger
	commands       map[string]*command
	removeHandlers []func()
}

type Params struct {
	Session Session
	Config  config.BotConfig
	Resizer imageresize.Resizer
	// StatusChecker backs the owner-only status command; nil disables it.
	StatusChecker  statustracker.Checker
	UpscaleLimiter *rate.Limiter
	Logger         logger.Logger
}

func New(p Params) *DefaultDiscord {
	limiter := p.UpscaleLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(3*time.Second), 3)
	}

	c := &DefaultDiscord{
		session:        p.Session,
		cfg:            p.Config,
		resizer:        p.Resizer,
		statusChecker:  p.StatusChecker,
		upscaleLimiter: limiter,
		logger:         logger.OrNop(p.Logger),
	}
	c.commands = c.buildCommands()
	return c
}

func (c *DefaultDiscord) Start(ctx context.Context) error {
	if c.session == nil {
		return errors.New("discord session is nil")
	}

	c.removeHandlers = append(c.removeHandlers,
		c.session.AddHandler(c.handleReady),
		c.session.AddHandler(c.handleMessage),
	)

	if err := c.session.Open(); err != nil {
		c.removeAllHandlers()
		return fmt.Errorf("open discord connection: %w", err)
	}
	return nil
}

func (c *DefaultDiscord) Stop() error {
	c.removeAllHandlers()
	if c.session == nil {
		return nil
	}
	return c.session.Close()
}

func (c *DefaultDiscord) removeAllHandlers() {
	for _, remove := range c.removeHandlers {
		remove()
	}
	c.removeHandlers = nil
}

func (c *DefaultDiscord) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	c.onReady(r)
}

func (c *DefaultDiscord) onReady(r *discordgo.Ready) {
	user := ""
	if r != nil && r.User != nil {
		user = r.User.Username
	}
	c.logger.InfoW("discord session ready", "user", user, "guild", c.cfg.Guild)

	if c.cfg.Activity != "" {
		if err := c.session.UpdateGameStatus(0, c.cfg.Activity); err != nil {
			c.logger.WarnW("failed to set activity", "activity", c.cfg.Activity, "error", err)
		}
	}

	c.logToChannel(fmt.Sprintf(":green_circle: Logged in as **%s**.", user))
}

func (c *DefaultDiscord) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil {
		return
	}
	c.onMessage(context.Background(), m.Message)
}

func (c *DefaultDiscord) onMessage(ctx context.Context, m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.GuildID != "" && m.GuildID != c.cfg.Guild {
		return
	}

	name, args, ok := parseCommand(c.cfg.Prefix, m.Content)
	if !ok {
		return
	}
	cmd, ok := c.commands[name]
	if !ok {
		return
	}

	if cmd.ownerOnly && m.Author.ID != c.cfg.Owner {
		c.reply(m, ":no_entry: This command can only be used by the bot owner.")
		return
	}

	if err := cmd.run(ctx, m, args); err != nil {
		c.logger.ErrorW("command failed",
			"command", name,
			"user", m.Author.ID,
			"channel", m.ChannelID,
			"error", err,
		)
		c.reply(m, ":warning: "+err.Error())
		c.logToChannel(fmt.Sprintf(":warning: `%s` failed for <@%s>: %v", name, m.Author.ID, err))
	}
}

// parseCommand splits a prefixed message into a lower-cased command name
// and its arguments.
func parseCommand(prefix, content string) (string, []string, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	parts := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(parts) == 0 {
		return "", nil, false
	}
	return strings.ToLower(parts[0]), parts[1:], true
}

func (c *DefaultDiscord) reply(m *discordgo.Message, text string) {
	if _, err := c.session.ChannelMessageSend(m.ChannelID, text); err != nil {
		c.logger.ErrorW("failed to send response", "channel", m.ChannelID, "error", err)
	}
}

func (c *DefaultDiscord) logToChannel(text string) {
	if !c.cfg.Logging.Enabled || c.cfg.Logging.Channel == "" {
		return
	}
	if _, err := c.session.ChannelMessageSend(c.cfg.Logging.Channel, text); err != nil {
		c.logger.WarnW("failed to write to log channel", "channel", c.cfg.Logging.Channel, "error", err)
	}
}

// SendMessage posts msg to channelID after checking that the channel belongs
// to guildID. Messages over Discord's length limit are split on line
// boundaries.
func (c *DefaultDiscord) SendMessage(guildID, channelID, msg string) error {
	if c.session == nil {
		return errors.New("discord session is nil")
	}

	ch, err := c.session.Channel(channelID)
	if err != nil {
		return fmt.Errorf("resolve channel %s: %w", channelID, err)
	}
	if ch.GuildID != guildID {
		return fmt.Errorf("%w: channel %s, guild %s", ErrChannelNotInGuild, channelID, guildID)
	}

	for _, part := range splitMessage(msg, maxMessageLength) {
		if _, err := c.session.ChannelMessageSend(channelID, part); err != nil {
			return fmt.Errorf("send message to %s: %w", channelID, err)
		}
	}
	return nil
}

func splitMessage(msg string, limit int) []string {
	if len(msg) <= limit {
		return []string{msg}
	}

	var (
		parts []string
		sb    strings.Builder
	)
	for _, line := range strings.SplitAfter(msg, "\n") {
		for len(line) > limit {
			if sb.Len() > 0 {
				parts = append(parts, strings.TrimSuffix(sb.String(), "\n"))
				sb.Reset()
			}
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if sb.Len()+len(line) > limit {
			parts = append(parts, strings.TrimSuffix(sb.String(), "\n"))
			sb.Reset()
		}
		sb.WriteString(line)
	}
	if sb.Len() > 0 {
		parts = append(parts, strings.TrimSuffix(sb.String(), "\n"))
	}
	return parts
}
