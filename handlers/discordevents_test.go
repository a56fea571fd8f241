package handlers

import (
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chxbot/models"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []models.InboundEvent
}

func (d *recordingDispatcher) Dispatch(event models.InboundEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func setupDiscordEventsTest() (*DiscordEventsHandler, *recordingDispatcher) {
	dispatcher := &recordingDispatcher{}
	return &DiscordEventsHandler{dispatcher: dispatcher}, dispatcher
}

func createTestUser() *discordgo.User {
	return &discordgo.User{ID: "user-1", Username: "alice", GlobalName: "Alice", Avatar: "abc123"}
}

func createTestCommandInteraction(member *discordgo.Member, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "interaction-1",
		AppID:     "app-1",
		Token:     "token-1",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "guild-1",
		ChannelID: "channel-1",
		Member:    member,
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    "announce",
			Options: options,
		},
	}}
}

func TestToActor(t *testing.T) {
	t.Run("nickname_wins_over_global_name", func(t *testing.T) {
		actor := toActor(createTestUser(), &discordgo.Member{Nick: "Ali"})

		assert.Equal(t, "user-1", actor.ID)
		assert.Equal(t, "alice", actor.Username)
		assert.Equal(t, "Ali", actor.DisplayName)
		assert.Contains(t, actor.AvatarURL, "abc123")
	})

	t.Run("global_name_wins_over_username", func(t *testing.T) {
		actor := toActor(createTestUser(), nil)

		assert.Equal(t, "Alice", actor.DisplayName)
	})

	t.Run("no_avatar_leaves_url_empty", func(t *testing.T) {
		actor := toActor(&discordgo.User{ID: "user-2", Username: "bob", Bot: true}, nil)

		assert.Equal(t, "bob", actor.DisplayName)
		assert.Empty(t, actor.AvatarURL)
		assert.True(t, actor.Bot)
	})
}

func TestMapToCommandInvokedEvent(t *testing.T) {
	t.Run("maps_options_and_permissions", func(t *testing.T) {
		member := &discordgo.Member{User: createTestUser(), Permissions: discordgo.PermissionManageMessages}
		interaction := createTestCommandInteraction(member,
			&discordgo.ApplicationCommandInteractionDataOption{Name: "title", Type: discordgo.ApplicationCommandOptionString, Value: "Sale"},
			&discordgo.ApplicationCommandInteractionDataOption{Name: "channel", Type: discordgo.ApplicationCommandOptionChannel, Value: "channel-9"},
			&discordgo.ApplicationCommandInteractionDataOption{Name: "count", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
		)

		event, ok := mapToCommandInvokedEvent(interaction)

		require.True(t, ok)
		assert.Equal(t, "announce", event.CommandName)
		assert.Equal(t, models.InteractionRef{ID: "interaction-1", AppID: "app-1", Token: "token-1"}, event.Interaction)
		assert.Equal(t, "channel-1", event.ChannelID)
		assert.True(t, event.CallerPermissions.Has(models.PermissionManageMessages))
		assert.Equal(t, "Sale", event.StringOption("title").OrEmpty())
		assert.Equal(t, "channel-9", event.StringOption("channel").OrEmpty())
		assert.Equal(t, int64(3), event.IntOption("count").OrEmpty())
	})

	t.Run("direct_message_uses_user_without_permissions", func(t *testing.T) {
		interaction := createTestCommandInteraction(nil)
		interaction.User = createTestUser()

		event, ok := mapToCommandInvokedEvent(interaction)

		require.True(t, ok)
		assert.Equal(t, "user-1", event.Caller.ID)
		assert.Equal(t, models.Permission(0), event.CallerPermissions)
	})

	t.Run("interaction_without_user_is_rejected", func(t *testing.T) {
		_, ok := mapToCommandInvokedEvent(createTestCommandInteraction(nil))

		assert.False(t, ok)
	})
}

func TestDiscordEventsHandlerDispatch(t *testing.T) {
	t.Run("message_is_dispatched", func(t *testing.T) {
		handler, dispatcher := setupDiscordEventsTest()

		handler.handleMessageCreatedEvent(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
			ID: "msg-1", GuildID: "guild-1", ChannelID: "channel-1", Author: createTestUser(), Content: "!oi",
		}})

		require.Len(t, dispatcher.events, 1)
		event := dispatcher.events[0].(models.MessageReceivedEvent)
		assert.Equal(t, "!oi", event.Content)
		assert.Equal(t, "user-1", event.ActorID())
	})

	t.Run("member_join_is_dispatched", func(t *testing.T) {
		handler, dispatcher := setupDiscordEventsTest()

		handler.handleMemberAddedEvent(nil, &discordgo.GuildMemberAdd{Member: &discordgo.Member{
			GuildID: "guild-1", User: createTestUser(),
		}})

		require.Len(t, dispatcher.events, 1)
		event := dispatcher.events[0].(models.MemberJoinedEvent)
		assert.Equal(t, "guild-1", event.GuildID)
		assert.Equal(t, "Alice", event.Member.DisplayName)
	})

	t.Run("ready_is_dispatched", func(t *testing.T) {
		handler, dispatcher := setupDiscordEventsTest()

		handler.handleReadyEvent(nil, &discordgo.Ready{
			User:   &discordgo.User{ID: "bot-1", Username: "chx", Bot: true},
			Guilds: []*discordgo.Guild{{ID: "guild-1"}, {ID: "guild-2"}},
		})

		require.Len(t, dispatcher.events, 1)
		assert.Equal(t, models.ReadyEvent{BotUser: models.Actor{ID: "bot-1", Username: "chx", DisplayName: "chx", Bot: true}, Guilds: 2}, dispatcher.events[0])
	})

	t.Run("non_command_interactions_are_ignored", func(t *testing.T) {
		handler, dispatcher := setupDiscordEventsTest()
		interaction := createTestCommandInteraction(&discordgo.Member{User: createTestUser()})
		interaction.Type = discordgo.InteractionMessageComponent

		handler.handleInteractionCreatedEvent(nil, interaction)

		assert.Empty(t, dispatcher.events)
	})

	t.Run("incomplete_events_are_ignored", func(t *testing.T) {
		handler, dispatcher := setupDiscordEventsTest()

		handler.handleMessageCreatedEvent(nil, &discordgo.MessageCreate{Message: &discordgo.Message{ID: "msg-1"}})
		handler.handleMemberAddedEvent(nil, &discordgo.GuildMemberAdd{Member: &discordgo.Member{GuildID: "guild-1"}})
		handler.handleReadyEvent(nil, &discordgo.Ready{})

		assert.Empty(t, dispatcher.events)
	})
}
