package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/tnicklin/thimble-bot/imageresize"
	"github.com/tnicklin/thimble-bot/workers"
)

const (
	minUpscale = 2
	maxUpscale = 10

	msgNoImage      = ":warning: Please provide an image."
	msgScalePrompt  = "How many times the original size?"
	msgRateLimited  = ":hourglass: Slow down! Try again in a few seconds."
	msgTooLarge     = ":warning: That image would be too large. Try a smaller scale."
	msgUnsupported  = ":warning: I can't read that image format."
	msgAllHealthy   = ":white_check_mark: All domains are up."
	msgStatusNotSet = ":warning: StatusTracker is not configured."
)

type command struct {
	name        string
	description string
	examples    []string
	ownerOnly   bool
	run         func(ctx context.Context, m *discordgo.Message, args []string) error
}

func (c *DefaultDiscord) buildCommands() map[string]*command {
	cmds := []*command{
		{
			name:        "upscale",
			description: "Upscale an image by a certain amount. Works best with pixel art. For anything else, it will be pixelated, but not too noticeably.",
			examples:    []string{"upscale 3` - upscale an image 3 times its original size"},
			run:         c.cmdUpscale,
		},
		{
			name:        "ping",
			description: "Check that the bot is alive.",
			run:         c.cmdPing,
		},
		{
			name:        "status",
			description: "Run the server status check now.",
			ownerOnly:   true,
			run:         c.cmdStatus,
		},
		{
			name:        "help",
			description: "Show this help message.",
			run:         c.cmdHelp,
		},
	}

	out := make(map[string]*command, len(cmds))
	for _, cmd := range cmds {
		out[cmd.name] = cmd
	}
	return out
}

// cmdUpscale handles the upscale command.
// Usage: upscale <scale>
func (c *DefaultDiscord) cmdUpscale(ctx context.Context, m *discordgo.Message, args []string) error {
	scale, ok := parseScale(args)
	if !ok {
		c.reply(m, fmt.Sprintf("%s Usage: `%supscale <%d-%d>`", msgScalePrompt, c.cfg.Prefix, minUpscale, maxUpscale))
		return nil
	}

	if len(m.Attachments) == 0 {
		c.reply(m, msgNoImage)
		return nil
	}

	if c.resizer == nil {
		return errors.New("image resizing is not available")
	}

	if !c.upscaleLimiter.Allow() {
		c.reply(m, msgRateLimited)
		return nil
	}

	_ = c.session.ChannelTyping(m.ChannelID)

	att := m.Attachments[0]
	res, err := c.resizer.Resize(ctx, imageresize.Request{
		URL:      att.URL,
		Filename: att.Filename,
		Width:    att.Width,
		Height:   att.Height,
		Scale:    scale,
	})
	switch {
	case errors.Is(err, imageresize.ErrTooLarge):
		c.reply(m, msgTooLarge)
		return nil
	case errors.Is(err, imageresize.ErrUnsupportedFormat):
		c.reply(m, msgUnsupported)
		return nil
	case err != nil:
		return fmt.Errorf("upscale failed: %w", err)
	}

	_, err = c.session.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Files: []*discordgo.File{{
			Name:        res.Filename,
			ContentType: res.ContentType,
			Reader:      bytes.NewReader(res.Data),
		}},
		Reference: m.Reference(),
	})
	if err != nil {
		return fmt.Errorf("upload image: %w", err)
	}

	c.logger.InfoW("image upscaled",
		"user", m.Author.ID,
		"scale", scale,
		"width", res.Width,
		"height", res.Height,
	)
	return nil
}

func parseScale(args []string) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	scale, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(args[0]), "x"))
	if err != nil || scale < minUpscale || scale > maxUpscale {
		return 0, false
	}
	return scale, true
}

func (c *DefaultDiscord) cmdPing(_ context.Context, m *discordgo.Message, _ []string) error {
	c.reply(m, "Pong!")
	return nil
}

// cmdStatus runs the status tracker on demand and replies with the same
// text the background worker would deliver.
func (c *DefaultDiscord) cmdStatus(ctx context.Context, m *discordgo.Message, _ []string) error {
	if c.statusChecker == nil {
		c.reply(m, msgStatusNotSet)
		return nil
	}

	_ = c.session.ChannelTyping(m.ChannelID)

	report, err := c.statusChecker.Check(ctx)
	if err != nil {
		c.logger.WarnW("on-demand status check failed", "error", err)
	}
	msg, ok := workers.MessageFor(report, err)
	if !ok {
		msg = msgAllHealthy
	}
	for _, part := range splitMessage(msg, maxMessageLength) {
		c.reply(m, part)
	}
	return nil
}

func (c *DefaultDiscord) cmdHelp(_ context.Context, m *discordgo.Message, _ []string) error {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("**Available Commands:**\n")
	for _, name := range names {
		cmd := c.commands[name]
		fmt.Fprintf(&sb, "`%s%s` - %s", c.cfg.Prefix, cmd.name, cmd.description)
		if cmd.ownerOnly {
			sb.WriteString(" *(owner only)*")
		}
		sb.WriteString("\n")
		for _, ex := range cmd.examples {
			fmt.Fprintf(&sb, "  • `%s%s\n", c.cfg.Prefix, ex)
		}
	}

	c.reply(m, strings.TrimSuffix(sb.String(), "\n"))
	return nil
}
