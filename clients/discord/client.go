package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"chxbot/clients"
	"chxbot/core"
	"chxbot/models"
)

// Intents the bot needs: member joins, guild messages and their text content
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent

// NewSession creates a gateway session for the bot token.
// Events are delivered to handlers in gateway order; callers provide their own concurrency.
func NewSession(botToken string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Identify.Intents = Intents
	session.SyncEvents = true
	session.ShouldRetryOnRateLimit = true
	session.MaxRestRetries = 3
	session.StateEnabled = true

	return session, nil
}

// DiscordClient implements the clients.DiscordClient interface on top of a discordgo session
type DiscordClient struct {
	session *discordgo.Session
}

func NewDiscordClient(session *discordgo.Session) clients.DiscordClient {
	return &DiscordClient{session: session}
}

// GetBotUser returns the identity the gateway session is logged in as
func (c *DiscordClient) GetBotUser() (*clients.DiscordBotUser, error) {
	if c.session.State == nil || c.session.State.User == nil {
		return nil, fmt.Errorf("bot user not available: session is not connected")
	}

	user := c.session.State.User
	return &clients.DiscordBotUser{
		ID:       user.ID,
		Username: user.Username,
		Bot:      user.Bot,
	}, nil
}

func (c *DiscordClient) HeartbeatLatency() time.Duration {
	return c.session.HeartbeatLatency()
}

// GetGuildRole resolves a role, preferring the state cache and falling back to the REST API
func (c *DiscordClient) GetGuildRole(ctx context.Context, guildID, roleID string) (*clients.DiscordRole, error) {
	if role, err := c.session.State.Role(guildID, roleID); err == nil && role != nil {
		return &clients.DiscordRole{ID: role.ID, GuildID: guildID, Name: role.Name}, nil
	}

	roles, err := c.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles for guild %s: %w", guildID, mapRESTError(err))
	}

	role, found := lo.Find(roles, func(r *discordgo.Role) bool { return r.ID == roleID })
	if !found {
		return nil, fmt.Errorf("role %s in guild %s: %w", roleID, guildID, core.ErrNotFound)
	}

	return &clients.DiscordRole{ID: role.ID, GuildID: guildID, Name: role.Name}, nil
}

func (c *DiscordClient) AddMemberRole(ctx context.Context, guildID, userID, roleID, auditReason string) error {
	err := c.session.GuildMemberRoleAdd(
		guildID,
		userID,
		roleID,
		discordgo.WithContext(ctx),
		discordgo.WithAuditLogReason(auditReason),
	)
	if err != nil {
		return fmt.Errorf("failed to add role %s to member %s: %w", roleID, userID, mapRESTError(err))
	}
	return nil
}

// GetChannel resolves a channel, preferring the state cache and falling back to the REST API
func (c *DiscordClient) GetChannel(ctx context.Context, channelID string) (*clients.DiscordChannel, error) {
	if channel, err := c.session.State.Channel(channelID); err == nil && channel != nil {
		return toChannel(channel), nil
	}

	channel, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel %s: %w", channelID, mapRESTError(err))
	}
	if channel == nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, core.ErrNotFound)
	}

	return toChannel(channel), nil
}

func (c *DiscordClient) SendMessage(
	ctx context.Context,
	channelID string,
	message clients.DiscordMessage,
) (*clients.DiscordMessageResponse, error) {
	data := &discordgo.MessageSend{Content: message.Content}
	if message.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{toEmbed(message.Embed)}
	}
	if message.AllowedUserMentions != nil {
		data.AllowedMentions = &discordgo.MessageAllowedMentions{Users: message.AllowedUserMentions}
	}

	sent, err := c.session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to send message to channel %s: %w", channelID, mapRESTError(err))
	}

	return &clients.DiscordMessageResponse{ID: sent.ID, ChannelID: sent.ChannelID}, nil
}

func (c *DiscordClient) ReplyToMessage(
	ctx context.Context,
	channelID, messageID, content string,
) (*clients.DiscordMessageResponse, error) {
	reference := &discordgo.MessageReference{MessageID: messageID, ChannelID: channelID}
	sent, err := c.session.ChannelMessageSendReply(channelID, content, reference, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to reply to message %s: %w", messageID, mapRESTError(err))
	}

	return &clients.DiscordMessageResponse{ID: sent.ID, ChannelID: sent.ChannelID}, nil
}

// DeferInteraction acknowledges an interaction so the final answer can arrive after the deadline
func (c *DiscordClient) DeferInteraction(ctx context.Context, interaction models.InteractionRef, ephemeral bool) error {
	err := c.session.InteractionRespond(
		toInteraction(interaction),
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: messageFlags(ephemeral)},
		},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to defer interaction %s: %w", interaction.ID, mapRESTError(err))
	}
	return nil
}

func (c *DiscordClient) EditInteractionResponse(ctx context.Context, interaction models.InteractionRef, content string) error {
	_, err := c.session.InteractionResponseEdit(
		toInteraction(interaction),
		&discordgo.WebhookEdit{Content: &content},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to edit interaction response %s: %w", interaction.ID, mapRESTError(err))
	}
	return nil
}

func (c *DiscordClient) RespondToInteraction(
	ctx context.Context,
	interaction models.InteractionRef,
	content string,
	ephemeral bool,
) error {
	err := c.session.InteractionRespond(
		toInteraction(interaction),
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: content,
				Flags:   messageFlags(ephemeral),
			},
		},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to respond to interaction %s: %w", interaction.ID, mapRESTError(err))
	}
	return nil
}

func (c *DiscordClient) OverwriteCommands(
	ctx context.Context,
	appID, guildID string,
	commands []models.CommandDescriptor,
) ([]clients.DiscordRemoteCommand, error) {
	payload := lo.Map(commands, func(d models.CommandDescriptor, _ int) *discordgo.ApplicationCommand {
		return ToApplicationCommand(d)
	})

	published, err := c.session.ApplicationCommandBulkOverwrite(appID, guildID, payload, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to overwrite commands: %w", mapRESTError(err))
	}

	return toRemoteCommands(published), nil
}

// ToApplicationCommand converts a descriptor into the platform's command payload
func ToApplicationCommand(d models.CommandDescriptor) *discordgo.ApplicationCommand {
	command := &discordgo.ApplicationCommand{
		Name:        d.Name,
		Description: d.Description,
		Options: lo.Map(d.Parameters, func(p models.CommandParameter, _ int) *discordgo.ApplicationCommandOption {
			option := &discordgo.ApplicationCommandOption{
				Type:        optionType(p.Type),
				Name:        p.Name,
				Description: p.Description,
				Required:    p.Required,
			}
			if p.Type == models.ParamTypeChannel {
				option.ChannelTypes = []discordgo.ChannelType{
					discordgo.ChannelTypeGuildText,
					discordgo.ChannelTypeGuildNews,
				}
			}
			return option
		}),
	}

	if perm, ok := d.RequiredPermission.Get(); ok {
		bits := int64(perm)
		command.DefaultMemberPermissions = &bits
	}

	return command
}

func optionType(t models.ParamType) discordgo.ApplicationCommandOptionType {
	switch t {
	case models.ParamTypeChannel:
		return discordgo.ApplicationCommandOptionChannel
	case models.ParamTypeUser:
		return discordgo.ApplicationCommandOptionUser
	case models.ParamTypeInteger:
		return discordgo.ApplicationCommandOptionInteger
	case models.ParamTypeBoolean:
		return discordgo.ApplicationCommandOptionBoolean
	default:
		return discordgo.ApplicationCommandOptionString
	}
}

// mapRESTError translates platform error codes into the core error taxonomy
func mapRESTError(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return err
	}

	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeMissingAccess, discordgo.ErrCodeMissingPermissions:
			return fmt.Errorf("%w: %v", core.ErrDeliveryForbidden, err)
		case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownRole, discordgo.ErrCodeUnknownMember:
			return fmt.Errorf("%w: %v", core.ErrNotFound, err)
		}
	}

	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", core.ErrDeliveryForbidden, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", core.ErrNotFound, err)
		}
	}

	return err
}

func toInteraction(ref models.InteractionRef) *discordgo.Interaction {
	return &discordgo.Interaction{ID: ref.ID, AppID: ref.AppID, Token: ref.Token}
}

func messageFlags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func toChannel(channel *discordgo.Channel) *clients.DiscordChannel {
	return &clients.DiscordChannel{ID: channel.ID, GuildID: channel.GuildID, Name: channel.Name}
}

func toEmbed(embed *clients.DiscordEmbed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}
	if embed.ThumbnailURL != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: embed.ThumbnailURL}
	}
	if embed.FooterText != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: embed.FooterText, IconURL: embed.FooterIconURL}
	}
	return out
}

func toRemoteCommands(commands []*discordgo.ApplicationCommand) []clients.DiscordRemoteCommand {
	return lo.Map(commands, func(c *discordgo.ApplicationCommand, _ int) clients.DiscordRemoteCommand {
		return clients.DiscordRemoteCommand{ID: c.ID, Name: c.Name, GuildID: c.GuildID}
	})
}
