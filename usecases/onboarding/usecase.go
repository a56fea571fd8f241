package onboarding

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/mo"

	"chxbot/clients"
	"chxbot/config"
	"chxbot/core"
	"chxbot/models"
)

const (
	AuditReason        = "Automatic welcome role"
	WelcomeTitle       = "👋 Welcome aboard!"
	WelcomeDescription = "🫶 This is ChX's community server!"
	WelcomeColor       = 0xFFD700 // gold
)

// OnboardingUseCase grants the auto-role and posts the welcome message for new members
type OnboardingUseCase struct {
	discordClient clients.DiscordClient
	settings      config.Settings
}

func NewOnboardingUseCase(discordClient clients.DiscordClient, settings config.Settings) *OnboardingUseCase {
	return &OnboardingUseCase{
		discordClient: discordClient,
		settings:      settings,
	}
}

// OnMemberJoined runs the role grant and then the welcome message.
// The steps are independent: a failure in one is recorded and the other still runs.
// Nothing is retried, so a replayed join never grants or greets twice.
func (u *OnboardingUseCase) OnMemberJoined(ctx context.Context, event models.MemberJoinedEvent) models.OnboardingOutcome {
	log.Printf("📋 Starting onboarding for user %s in guild %s", event.Member.ID, event.GuildID)

	outcome := models.OnboardingOutcome{
		GuildID: event.GuildID,
		UserID:  event.Member.ID,
	}

	if err := runStep("role grant", func() (bool, error) { return u.grantAutoRole(ctx, event) }, &outcome.RoleGranted); err != nil {
		outcome.RoleError = mo.Some(err.Error())
	}
	if err := runStep("welcome", func() (bool, error) { return u.sendWelcome(ctx, event) }, &outcome.WelcomeSent); err != nil {
		outcome.WelcomeError = mo.Some(err.Error())
	}

	if outcome.Failed() {
		log.Printf("⚠️ Onboarding finished with errors: %s", outcome)
	} else {
		log.Printf("✅ Onboarding finished: %s", outcome)
	}
	return outcome
}

// runStep shields the workflow from a step's panic so the next step always runs
func runStep(name string, step func() (bool, error), done *bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s step panicked: %v", name, r)
		}
	}()

	ok, err := step()
	*done = ok
	return err
}

func (u *OnboardingUseCase) grantAutoRole(ctx context.Context, event models.MemberJoinedEvent) (bool, error) {
	roleID, ok := u.settings.AutoRoleID.Get()
	if !ok {
		return false, nil
	}

	role, err := u.discordClient.GetGuildRole(ctx, event.GuildID, roleID)
	if core.IsNotFoundError(err) {
		log.Printf("⚠️ Auto-role %s does not exist in guild %s - check AUTO_ROLE_ID", roleID, event.GuildID)
		return false, fmt.Errorf("auto-role %s: %w", roleID, core.ErrNotFound)
	}
	if err != nil {
		log.Printf("⚠️ Auto-role %s could not be resolved in guild %s: %v", roleID, event.GuildID, err)
		return false, fmt.Errorf("failed to resolve auto-role %s: %w", roleID, err)
	}

	if err := u.discordClient.AddMemberRole(ctx, event.GuildID, event.Member.ID, role.ID, AuditReason); err != nil {
		log.Printf("⚠️ Failed to grant role %s to %s: %v", role.Name, event.Member.Username, err)
		return false, fmt.Errorf("failed to grant role %s: %w", role.Name, err)
	}

	log.Printf("✅ Granted role %s to %s", role.Name, event.Member.Username)
	return true, nil
}

func (u *OnboardingUseCase) sendWelcome(ctx context.Context, event models.MemberJoinedEvent) (bool, error) {
	channelID, ok := u.settings.WelcomeChannelID.Get()
	if !ok {
		return false, nil
	}

	channel, err := u.discordClient.GetChannel(ctx, channelID)
	if core.IsNotFoundError(err) {
		log.Printf("⚠️ Welcome channel %s does not exist - check WELCOME_CHANNEL_ID", channelID)
		return false, fmt.Errorf("welcome channel %s: %w", channelID, core.ErrNotFound)
	}
	if err != nil {
		log.Printf("⚠️ Welcome channel %s could not be resolved: %v", channelID, err)
		return false, fmt.Errorf("failed to resolve welcome channel %s: %w", channelID, err)
	}

	if _, err := u.discordClient.SendMessage(ctx, channel.ID, BuildWelcomeMessage(event.Member)); err != nil {
		log.Printf("⚠️ Failed to send welcome for %s to channel %s: %v", event.Member.Username, channel.ID, err)
		return false, fmt.Errorf("failed to send welcome message: %w", err)
	}

	log.Printf("📨 Welcome sent for %s in channel %s", event.Member.Username, channel.ID)
	return true, nil
}

// BuildWelcomeMessage mentions the member in the body so the ping lands even when embeds are hidden
func BuildWelcomeMessage(member models.Actor) clients.DiscordMessage {
	name := member.DisplayName
	if name == "" {
		name = member.Username
	}
	if name == "" {
		name = "new member"
	}

	embed := &clients.DiscordEmbed{
		Title:       WelcomeTitle,
		Description: WelcomeDescription,
		Color:       WelcomeColor,
		FooterText:  fmt.Sprintf("Welcome to the community, %s!", name),
	}
	if member.AvatarURL != "" {
		embed.ThumbnailURL = member.AvatarURL
		embed.FooterIconURL = member.AvatarURL
	}

	return clients.DiscordMessage{
		Content:             fmt.Sprintf("👋 Welcome %s!", member.Mention()),
		Embed:               embed,
		AllowedUserMentions: []string{member.ID},
	}
}
