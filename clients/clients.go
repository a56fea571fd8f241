package clients

import (
	"context"
	"time"

	"chxbot/models"
)

// DiscordClient is the platform capability the bot is built on:
// connection facts, role and channel lookup, message sends, interaction replies
// and command catalog publishing.
type DiscordClient interface {
	GetBotUser() (*DiscordBotUser, error)
	// HeartbeatLatency is the round trip of the last gateway heartbeat
	HeartbeatLatency() time.Duration

	GetGuildRole(ctx context.Context, guildID, roleID string) (*DiscordRole, error)
	AddMemberRole(ctx context.Context, guildID, userID, roleID, auditReason string) error
	GetChannel(ctx context.Context, channelID string) (*DiscordChannel, error)

	SendMessage(ctx context.Context, channelID string, message DiscordMessage) (*DiscordMessageResponse, error)
	ReplyToMessage(ctx context.Context, channelID, messageID, content string) (*DiscordMessageResponse, error)

	DeferInteraction(ctx context.Context, interaction models.InteractionRef, ephemeral bool) error
	EditInteractionResponse(ctx context.Context, interaction models.InteractionRef, content string) error
	RespondToInteraction(ctx context.Context, interaction models.InteractionRef, content string, ephemeral bool) error

	// OverwriteCommands replaces the whole remote catalog for guildID (global when empty)
	OverwriteCommands(ctx context.Context, appID, guildID string, commands []models.CommandDescriptor) ([]DiscordRemoteCommand, error)
}

type DiscordBotUser struct {
	ID       string
	Username string
	Bot      bool
}

type DiscordRole struct {
	ID      string
	GuildID string
	Name    string
}

type DiscordChannel struct {
	ID      string
	GuildID string
	Name    string
}

// Mention returns the platform mention markup for the channel
func (c DiscordChannel) Mention() string {
	return "<#" + c.ID + ">"
}

type DiscordEmbed struct {
	Title         string
	Description   string
	Color         int
	ThumbnailURL  string
	FooterText    string
	FooterIconURL string
}

// DiscordMessage is an outbound message; Content and Embed may be combined
type DiscordMessage struct {
	Content string
	Embed   *DiscordEmbed
	// AllowedUserMentions restricts pings to these users; nil keeps the platform default
	AllowedUserMentions []string
}

type DiscordMessageResponse struct {
	ID        string
	ChannelID string
}

type DiscordRemoteCommand struct {
	ID      string
	Name    string
	GuildID string
}
