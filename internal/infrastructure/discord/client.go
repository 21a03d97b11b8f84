package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/wexpcoder/roadcrew/internal/application/contracts"
	"github.com/wexpcoder/roadcrew/internal/infrastructure/config"
	"github.com/wexpcoder/roadcrew/pkg/logger"
)

// Client wraps the Discord gateway session for one guild.
type Client struct {
	cfg     *config.DiscordConfig
	session *discordgo.Session
}

var (
	_ contracts.ChatDirectory = (*Client)(nil)
	_ contracts.Notifier      = (*Client)(nil)
)

func NewClient(cfg *config.DiscordConfig) (*Client, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	return &Client{cfg: cfg, session: session}, nil
}

// Session exposes the raw gateway session for handler registration.
func (c *Client) Session() *discordgo.Session {
	return c.session
}

// Open connects to the gateway.
func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	logger.Info("Discord gateway connected", "guildID", c.cfg.GuildID)
	return nil
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) SendMessage(channelID, text string) error {
	if _, err := c.session.ChannelMessageSend(channelID, text); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Members pages through the full guild member list.
func (c *Client) Members(ctx context.Context) ([]contracts.ChatMember, error) {
	var out []contracts.ChatMember
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := c.session.GuildMembers(c.cfg.GuildID, after, 1000)
		if err != nil {
			return nil, fmt.Errorf("failed to list guild members: %w", err)
		}
		for _, m := range page {
			if m.User == nil {
				continue
			}
			out = append(out, contracts.ChatMember{
				ID:       m.User.ID,
				Username: m.User.Username,
				RoleIDs:  m.Roles,
			})
			after = m.User.ID
		}
		if len(page) < 1000 {
			return out, nil
		}
	}
}

// RoleID looks up a guild role id by its display name.
func (c *Client) RoleID(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	roles, err := c.session.GuildRoles(c.cfg.GuildID)
	if err != nil {
		return "", fmt.Errorf("failed to list guild roles: %w", err)
	}
	for _, r := range roles {
		if r.Name == name {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("role %q not found", name)
}

func (c *Client) AddRole(ctx context.Context, userID, roleID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.session.GuildMemberRoleAdd(c.cfg.GuildID, userID, roleID)
}

func (c *Client) RemoveRole(ctx context.Context, userID, roleID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.session.GuildMemberRoleRemove(c.cfg.GuildID, userID, roleID)
}
