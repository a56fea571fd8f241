package router

import (
	"context"
	"fmt"
	"log"

	"chxbot/models"
	"chxbot/utils"
)

const HelpReply = "👋 Hi! Use **/ping** or **/announce** to try me out."

func (r *EventRouter) handleMessage(ctx context.Context, event models.MessageReceivedEvent) error {
	if event.Author.Bot || r.isSelf(event.Author.ID) {
		return nil
	}

	if utils.NormalizeCommandText(event.Content) != utils.NormalizeCommandText(r.prefix+"oi") {
		return nil
	}

	log.Printf("📨 Text command %soi from user %s in channel %s", r.prefix, event.Author.ID, event.ChannelID)
	if _, err := r.discordClient.ReplyToMessage(ctx, event.ChannelID, event.MessageID, HelpReply); err != nil {
		return fmt.Errorf("failed to reply to %soi: %w", r.prefix, err)
	}
	return nil
}

func (r *EventRouter) isSelf(authorID string) bool {
	botUser, err := r.discordClient.GetBotUser()
	if err != nil {
		log.Printf("⚠️ Could not resolve bot user: %v", err)
		return false
	}
	return botUser.ID == authorID
}
