package commands

import (
	"context"
	"fmt"
	"log"

	"chxbot/clients"
	"chxbot/core"
	"chxbot/models"
	commandsservice "chxbot/services/commands"
)

// CommandsUseCase answers slash command invocations.
// Every reply to the caller is private; only announcements are public.
type CommandsUseCase struct {
	discordClient clients.DiscordClient
	registry      *commandsservice.CommandRegistry
}

func NewCommandsUseCase(discordClient clients.DiscordClient, registry *commandsservice.CommandRegistry) *CommandsUseCase {
	return &CommandsUseCase{
		discordClient: discordClient,
		registry:      registry,
	}
}

func (u *CommandsUseCase) HandleCommand(ctx context.Context, event models.CommandInvokedEvent) error {
	log.Printf("📋 Starting to handle /%s from user %s in channel %s", event.CommandName, event.Caller.ID, event.ChannelID)

	descriptor, ok := u.registry.Lookup(event.CommandName).Get()
	if !ok {
		log.Printf("⚠️ Received unknown command /%s - replying privately", event.CommandName)
		return u.discordClient.RespondToInteraction(ctx, event.Interaction, MessageUnknownCommand, true)
	}

	switch event.CommandName {
	case commandsservice.CommandPing:
		return u.handlePing(ctx, event)
	case commandsservice.CommandAnnounce:
		return u.handleAnnounce(ctx, descriptor, event)
	default:
		return u.discordClient.RespondToInteraction(ctx, event.Interaction, MessageUnknownCommand, true)
	}
}

// authorize checks the caller's resolved channel permissions against the command's requirement
func authorize(descriptor models.CommandDescriptor, event models.CommandInvokedEvent) error {
	required, ok := descriptor.RequiredPermission.Get()
	if !ok || event.CallerPermissions.Has(required) {
		return nil
	}
	return fmt.Errorf("/%s requires %s, caller has %s: %w", descriptor.Name, required, event.CallerPermissions, core.ErrPermissionDenied)
}

func (u *CommandsUseCase) handlePing(ctx context.Context, event models.CommandInvokedEvent) error {
	if err := u.discordClient.DeferInteraction(ctx, event.Interaction, true); err != nil {
		return fmt.Errorf("failed to acknowledge /ping: %w", err)
	}

	latency := max(u.discordClient.HeartbeatLatency().Milliseconds(), 0)
	content := fmt.Sprintf("🏓 Pong! I'm alive and responding, %s! Gateway latency: %dms", event.Caller.Mention(), latency)

	if err := u.discordClient.EditInteractionResponse(ctx, event.Interaction, content); err != nil {
		return fmt.Errorf("failed to complete /ping: %w", err)
	}

	log.Printf("✅ Answered /ping for user %s (%dms)", event.Caller.ID, latency)
	return nil
}
