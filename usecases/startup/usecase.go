package startup

import (
	"context"
	"fmt"
	"log"

	"chxbot/clients"
	"chxbot/config"
)

// StartupUseCase announces that the bot came online
type StartupUseCase struct {
	discordClient clients.DiscordClient
	settings      config.Settings
}

func NewStartupUseCase(discordClient clients.DiscordClient, settings config.Settings) *StartupUseCase {
	return &StartupUseCase{
		discordClient: discordClient,
		settings:      settings,
	}
}

func OnlineMessage(botName string) string {
	return fmt.Sprintf("🚀 **%s** is online and ready!", botName)
}

// NotifyOnline prints the console line and posts to the log channel when one is configured.
// Delivery failures are logged and never stop the bot.
func (u *StartupUseCase) NotifyOnline(ctx context.Context, botName string) error {
	log.Printf("🤖 Bot is online as %s", botName)

	channelID, ok := u.settings.LogChannelID.Get()
	if !ok {
		return nil
	}

	channel, err := u.discordClient.GetChannel(ctx, channelID)
	if err != nil {
		log.Printf("⚠️ Log channel %s could not be resolved: %v", channelID, err)
		return nil
	}

	if _, err := u.discordClient.SendMessage(ctx, channel.ID, clients.DiscordMessage{Content: OnlineMessage(botName)}); err != nil {
		log.Printf("⚠️ Failed to post online notice to log channel %s: %v", channel.ID, err)
		return nil
	}

	log.Printf("✅ Online notice posted to log channel %s", channel.ID)
	return nil
}
