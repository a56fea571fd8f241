package commands

import (
	"context"
	"fmt"
	"log"
	"strings"

	"chxbot/clients"
	"chxbot/core"
	"chxbot/models"
	commandsservice "chxbot/services/commands"
	"chxbot/utils"
)

const (
	AnnouncementBanner = "**👑 〔 CHX 〕PRESENTS:**"

	MessageUnknownCommand  = "⚠️ I don't know that command."
	MessageAnnounceDenied  = "🚫 You need the Manage Messages permission to send announcements."
	MessageAnnounceInvalid = "⚠️ An announcement needs both a title and a message."
	MessageAnnounceFailed  = "⚠️ Something went wrong while sending the announcement."

	// maxMessageLength is the platform's limit for message content
	maxMessageLength = 2000
)

// ComposeAnnouncement builds the public announcement text
func ComposeAnnouncement(title, body, when string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n%s\n", AnnouncementBanner, title, body)
	if when != "" {
		fmt.Fprintf(&sb, "🕒 **When:** %s", when)
	}
	return utils.Truncate(strings.TrimRight(sb.String(), "\n"), maxMessageLength)
}

func (u *CommandsUseCase) handleAnnounce(
	ctx context.Context,
	descriptor models.CommandDescriptor,
	event models.CommandInvokedEvent,
) error {
	if err := u.discordClient.DeferInteraction(ctx, event.Interaction, true); err != nil {
		return fmt.Errorf("failed to acknowledge /announce: %w", err)
	}

	if err := authorize(descriptor, event); err != nil {
		log.Printf("🚫 Denied for user %s: %v", event.Caller.ID, err)
		return u.reply(ctx, event, MessageAnnounceDenied)
	}

	title, hasTitle := event.StringOption(commandsservice.AnnounceOptionTitle).Get()
	body, hasBody := event.StringOption(commandsservice.AnnounceOptionBody).Get()
	if !hasTitle || !hasBody {
		return u.reply(ctx, event, MessageAnnounceInvalid)
	}
	when := event.StringOption(commandsservice.AnnounceOptionWhen).OrEmpty()
	target := event.StringOption(commandsservice.AnnounceOptionChannel).OrElse(event.ChannelID)
	targetChannel := clients.DiscordChannel{ID: target}

	_, err := u.discordClient.SendMessage(ctx, target, clients.DiscordMessage{
		Content: ComposeAnnouncement(title, body, when),
	})
	if err != nil {
		if core.IsDeliveryForbidden(err) {
			log.Printf("⚠️ Missing permission to announce in channel %s: %v", target, err)
			return u.reply(ctx, event, deliveryForbiddenMessage(targetChannel))
		}
		log.Printf("❌ Failed to send announcement to channel %s: %v", target, err)
		return u.reply(ctx, event, MessageAnnounceFailed)
	}

	log.Printf("✅ Announcement from user %s sent to channel %s", event.Caller.ID, target)
	return u.reply(ctx, event, fmt.Sprintf("✅ Announcement sent in %s.", targetChannel.Mention()))
}

func deliveryForbiddenMessage(channel clients.DiscordChannel) string {
	return fmt.Sprintf(
		"⚠️ I can't post in %s. Ask an admin to grant me the View Channel and Send Messages permissions there, then try again.",
		channel.Mention(),
	)
}

// reply completes a deferred interaction with a private message
func (u *CommandsUseCase) reply(ctx context.Context, event models.CommandInvokedEvent, content string) error {
	if err := u.discordClient.EditInteractionResponse(ctx, event.Interaction, content); err != nil {
		return fmt.Errorf("failed to reply to /%s: %w", event.CommandName, err)
	}
	return nil
}
