package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chxbot/clients"
	discordclient "chxbot/clients/discord"
	"chxbot/models"
)

const testAppID = "app-1"

// fakeCatalog behaves like the platform's bulk overwrite: the scope's catalog becomes exactly the payload
type fakeCatalog struct {
	scopes map[string]map[string]clients.DiscordRemoteCommand
	nextID int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{scopes: make(map[string]map[string]clients.DiscordRemoteCommand)}
}

func (f *fakeCatalog) OverwriteCommands(
	_ context.Context,
	_ string,
	guildID string,
	commands []models.CommandDescriptor,
) ([]clients.DiscordRemoteCommand, error) {
	previous := f.scopes[guildID]
	next := make(map[string]clients.DiscordRemoteCommand, len(commands))
	out := make([]clients.DiscordRemoteCommand, 0, len(commands))
	for _, c := range commands {
		remote, ok := previous[c.Name]
		if !ok {
			f.nextID++
			remote = clients.DiscordRemoteCommand{ID: fmt.Sprintf("cmd-%d", f.nextID), Name: c.Name, GuildID: guildID}
		}
		next[c.Name] = remote
		out = append(out, remote)
	}
	f.scopes[guildID] = next
	return out, nil
}

func (f *fakeCatalog) count(guildID string) int {
	return len(f.scopes[guildID])
}

func TestNewCommandRegistry(t *testing.T) {
	t.Run("default_descriptors_are_valid", func(t *testing.T) {
		registry, err := NewCommandRegistry(DefaultDescriptors()...)

		require.NoError(t, err)
		assert.Equal(t, []string{CommandPing, CommandAnnounce}, registry.Names())
	})

	t.Run("duplicate_names_are_rejected", func(t *testing.T) {
		ping := models.CommandDescriptor{Name: "ping", Description: "Ping"}

		_, err := NewCommandRegistry(ping, ping)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate command name")
	})

	t.Run("malformed_descriptors_are_rejected", func(t *testing.T) {
		tests := []struct {
			name       string
			descriptor models.CommandDescriptor
		}{
			{name: "empty_name", descriptor: models.CommandDescriptor{Description: "x"}},
			{name: "uppercase_name", descriptor: models.CommandDescriptor{Name: "Ping", Description: "x"}},
			{name: "missing_description", descriptor: models.CommandDescriptor{Name: "ping"}},
			{
				name: "unknown_parameter_type",
				descriptor: models.CommandDescriptor{
					Name:        "x",
					Description: "x",
					Parameters:  []models.CommandParameter{{Name: "a", Description: "a", Type: "float"}},
				},
			},
			{
				name: "required_after_optional",
				descriptor: models.CommandDescriptor{
					Name:        "x",
					Description: "x",
					Parameters: []models.CommandParameter{
						{Name: "a", Description: "a", Type: models.ParamTypeString},
						{Name: "b", Description: "b", Type: models.ParamTypeString, Required: true},
					},
				},
			},
			{
				name: "duplicate_parameter",
				descriptor: models.CommandDescriptor{
					Name:        "x",
					Description: "x",
					Parameters: []models.CommandParameter{
						{Name: "a", Description: "a", Type: models.ParamTypeString},
						{Name: "a", Description: "a", Type: models.ParamTypeString},
					},
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewCommandRegistry(tt.descriptor)
				assert.Error(t, err)
			})
		}
	})
}

func TestCommandRegistryLookup(t *testing.T) {
	registry, err := NewCommandRegistry(DefaultDescriptors()...)
	require.NoError(t, err)

	announce, ok := registry.Lookup(CommandAnnounce).Get()
	require.True(t, ok)
	assert.Equal(t, mo.Some(models.PermissionManageMessages), announce.RequiredPermission)
	require.Len(t, announce.Parameters, 4)
	assert.True(t, announce.Parameters[0].Required)
	assert.True(t, announce.Parameters[1].Required)
	assert.False(t, announce.Parameters[2].Required)
	assert.Equal(t, models.ParamTypeChannel, announce.Parameters[3].Type)

	assert.False(t, registry.Lookup("unknown").IsPresent())
}

func TestCommandRegistryDescriptorsAreCopies(t *testing.T) {
	registry, err := NewCommandRegistry(DefaultDescriptors()...)
	require.NoError(t, err)

	descriptors := registry.Descriptors()
	descriptors[0].Name = "mutated"
	descriptors[1].Parameters[0].Name = "mutated"

	fresh := registry.Descriptors()
	assert.Equal(t, CommandPing, fresh[0].Name)
	assert.Equal(t, AnnounceOptionTitle, fresh[1].Parameters[0].Name)
}

func TestSynchronize(t *testing.T) {
	ctx := context.Background()

	t.Run("repeated_scoped_sync_is_idempotent", func(t *testing.T) {
		registry, err := NewCommandRegistry(DefaultDescriptors()...)
		require.NoError(t, err)
		catalog := newFakeCatalog()

		first := registry.Synchronize(ctx, catalog, testAppID, mo.Some("guild-1"))
		second := registry.Synchronize(ctx, catalog, testAppID, mo.Some("guild-1"))

		require.True(t, first.OK())
		require.True(t, second.OK())
		assert.False(t, first.Global())
		assert.Equal(t, 2, catalog.count("guild-1"))
		assert.Equal(t, first.Published, second.Published)
		assert.Equal(t, 0, catalog.count(""), "scoped sync must not publish globally")
	})

	t.Run("repeated_global_sync_is_idempotent", func(t *testing.T) {
		registry, err := NewCommandRegistry(DefaultDescriptors()...)
		require.NoError(t, err)
		catalog := newFakeCatalog()

		first := registry.Synchronize(ctx, catalog, testAppID, mo.None[string]())
		second := registry.Synchronize(ctx, catalog, testAppID, mo.None[string]())

		assert.True(t, first.Global())
		assert.Len(t, first.Published, 2)
		assert.Len(t, second.Published, 2)
		assert.Equal(t, 2, catalog.count(""))
	})

	t.Run("stale_remote_commands_are_replaced", func(t *testing.T) {
		catalog := newFakeCatalog()
		old, err := NewCommandRegistry(models.CommandDescriptor{Name: "anunciar", Description: "Old"})
		require.NoError(t, err)
		old.Synchronize(ctx, catalog, testAppID, mo.Some("guild-1"))

		registry, err := NewCommandRegistry(DefaultDescriptors()...)
		require.NoError(t, err)
		result := registry.Synchronize(ctx, catalog, testAppID, mo.Some("guild-1"))

		require.True(t, result.OK())
		assert.Equal(t, 2, catalog.count("guild-1"))
		_, orphan := catalog.scopes["guild-1"]["anunciar"]
		assert.False(t, orphan)
	})

	t.Run("publish_failure_is_a_warning_not_a_crash", func(t *testing.T) {
		registry, err := NewCommandRegistry(DefaultDescriptors()...)
		require.NoError(t, err)
		client := new(discordclient.MockDiscordClient)
		client.On("OverwriteCommands", mock.Anything, testAppID, "guild-1", mock.Anything).
			Return(nil, errors.New("network down"))

		result := registry.Synchronize(ctx, client, testAppID, mo.Some("guild-1"))

		assert.False(t, result.OK())
		assert.ErrorContains(t, result.Err, "network down")
		assert.Empty(t, result.Published)
		client.AssertExpectations(t)
	})

	t.Run("publishes_the_registry_descriptors", func(t *testing.T) {
		registry, err := NewCommandRegistry(DefaultDescriptors()...)
		require.NoError(t, err)
		client := new(discordclient.MockDiscordClient)
		client.On("OverwriteCommands", mock.Anything, testAppID, "", registry.Descriptors()).
			Return([]clients.DiscordRemoteCommand{{ID: "1", Name: "ping"}, {ID: "2", Name: "announce"}}, nil)

		result := registry.Synchronize(ctx, client, testAppID, mo.None[string]())

		assert.True(t, result.OK())
		assert.Len(t, result.Published, 2)
		client.AssertExpectations(t)
	})
}
