package handlers

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"chxbot/models"
)

// EventDispatcher accepts domain events without blocking the gateway
type EventDispatcher interface {
	Dispatch(event models.InboundEvent)
}

// DiscordEventsHandler translates gateway events into domain events for the router
type DiscordEventsHandler struct {
	discordSDKClient *discordgo.Session
	dispatcher       EventDispatcher
}

func NewDiscordEventsHandler(session *discordgo.Session, dispatcher EventDispatcher) *DiscordEventsHandler {
	handler := &DiscordEventsHandler{
		discordSDKClient: session,
		dispatcher:       dispatcher,
	}

	session.AddHandler(handler.handleReadyEvent)
	session.AddHandler(handler.handleMessageCreatedEvent)
	session.AddHandler(handler.handleMemberAddedEvent)
	session.AddHandler(handler.handleInteractionCreatedEvent)

	return handler
}

// StartBot opens the Discord connection and starts listening for events
func (h *DiscordEventsHandler) StartBot() error {
	if err := h.discordSDKClient.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}

	log.Printf("🤖 Discord bot is now running and listening for events")
	return nil
}

// StopBot gracefully closes the Discord connection
func (h *DiscordEventsHandler) StopBot() {
	if err := h.discordSDKClient.Close(); err != nil {
		log.Printf("⚠️ Failed to close Discord session cleanly: %v", err)
	}
}

func (h *DiscordEventsHandler) handleReadyEvent(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		return
	}
	h.dispatcher.Dispatch(mapToReadyEvent(r))
}

func (h *DiscordEventsHandler) handleMessageCreatedEvent(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil {
		return
	}
	h.dispatcher.Dispatch(mapToMessageReceivedEvent(m))
}

func (h *DiscordEventsHandler) handleMemberAddedEvent(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil {
		return
	}
	log.Printf("📨 Member %s joined guild %s", m.User.Username, m.GuildID)
	h.dispatcher.Dispatch(mapToMemberJoinedEvent(m))
}

func (h *DiscordEventsHandler) handleInteractionCreatedEvent(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	event, ok := mapToCommandInvokedEvent(i)
	if !ok {
		log.Printf("⚠️ Ignoring interaction %s without an invoking user", i.ID)
		return
	}
	h.dispatcher.Dispatch(event)
}

func mapToReadyEvent(r *discordgo.Ready) models.ReadyEvent {
	return models.ReadyEvent{
		BotUser: toActor(r.User, nil),
		Guilds:  len(r.Guilds),
	}
}

func mapToMessageReceivedEvent(m *discordgo.MessageCreate) models.MessageReceivedEvent {
	return models.MessageReceivedEvent{
		MessageID: m.ID,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		Author:    toActor(m.Author, m.Member),
		Content:   m.Content,
	}
}

func mapToMemberJoinedEvent(m *discordgo.GuildMemberAdd) models.MemberJoinedEvent {
	return models.MemberJoinedEvent{
		GuildID: m.GuildID,
		Member:  toActor(m.User, m.Member),
	}
}

// mapToCommandInvokedEvent reports false when the interaction carries no user
func mapToCommandInvokedEvent(i *discordgo.InteractionCreate) (models.CommandInvokedEvent, bool) {
	var (
		caller      models.Actor
		permissions models.Permission
	)
	switch {
	case i.Member != nil && i.Member.User != nil:
		caller = toActor(i.Member.User, i.Member)
		permissions = models.Permission(i.Member.Permissions)
	case i.User != nil:
		caller = toActor(i.User, nil)
	default:
		return models.CommandInvokedEvent{}, false
	}

	data := i.ApplicationCommandData()
	options := make([]models.CommandOption, 0, len(data.Options))
	for _, opt := range data.Options {
		if mapped, ok := toCommandOption(opt); ok {
			options = append(options, mapped)
		}
	}

	return models.CommandInvokedEvent{
		Interaction: models.InteractionRef{
			ID:    i.ID,
			AppID: i.AppID,
			Token: i.Token,
		},
		GuildID:           i.GuildID,
		ChannelID:         i.ChannelID,
		Caller:            caller,
		CallerPermissions: permissions,
		CommandName:       data.Name,
		Options:           options,
	}, true
}

func toCommandOption(opt *discordgo.ApplicationCommandInteractionDataOption) (models.CommandOption, bool) {
	switch opt.Type {
	case discordgo.ApplicationCommandOptionString:
		return models.CommandOption{Name: opt.Name, Type: models.ParamTypeString, Value: opt.StringValue()}, true
	case discordgo.ApplicationCommandOptionChannel:
		id, _ := opt.Value.(string)
		return models.CommandOption{Name: opt.Name, Type: models.ParamTypeChannel, Value: id}, true
	case discordgo.ApplicationCommandOptionUser:
		id, _ := opt.Value.(string)
		return models.CommandOption{Name: opt.Name, Type: models.ParamTypeUser, Value: id}, true
	case discordgo.ApplicationCommandOptionInteger:
		return models.CommandOption{Name: opt.Name, Type: models.ParamTypeInteger, Value: opt.IntValue()}, true
	case discordgo.ApplicationCommandOptionBoolean:
		return models.CommandOption{Name: opt.Name, Type: models.ParamTypeBoolean, Value: opt.BoolValue()}, true
	default:
		return models.CommandOption{}, false
	}
}

// toActor prefers the guild nickname, then the global display name, then the username
func toActor(user *discordgo.User, member *discordgo.Member) models.Actor {
	actor := models.Actor{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.Username,
		Bot:         user.Bot,
	}
	if user.GlobalName != "" {
		actor.DisplayName = user.GlobalName
	}
	if member != nil && member.Nick != "" {
		actor.DisplayName = member.Nick
	}

	switch {
	case member != nil && member.Avatar != "":
		actor.AvatarURL = member.AvatarURL("256")
	case user.Avatar != "":
		actor.AvatarURL = user.AvatarURL("256")
	}
	return actor
}
