package discord

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"chxbot/clients"
	"chxbot/models"
)

// MockDiscordClient implements the clients.DiscordClient interface for testing
type MockDiscordClient struct {
	mock.Mock
}

func (m *MockDiscordClient) GetBotUser() (*clients.DiscordBotUser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.DiscordBotUser), args.Error(1)
}

func (m *MockDiscordClient) HeartbeatLatency() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

func (m *MockDiscordClient) GetGuildRole(ctx context.Context, guildID, roleID string) (*clients.DiscordRole, error) {
	args := m.Called(ctx, guildID, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.DiscordRole), args.Error(1)
}

func (m *MockDiscordClient) AddMemberRole(ctx context.Context, guildID, userID, roleID, auditReason string) error {
	args := m.Called(ctx, guildID, userID, roleID, auditReason)
	return args.Error(0)
}

func (m *MockDiscordClient) GetChannel(ctx context.Context, channelID string) (*clients.DiscordChannel, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.DiscordChannel), args.Error(1)
}

func (m *MockDiscordClient) SendMessage(
	ctx context.Context,
	channelID string,
	message clients.DiscordMessage,
) (*clients.DiscordMessageResponse, error) {
	args := m.Called(ctx, channelID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.DiscordMessageResponse), args.Error(1)
}

func (m *MockDiscordClient) ReplyToMessage(
	ctx context.Context,
	channelID, messageID, content string,
) (*clients.DiscordMessageResponse, error) {
	args := m.Called(ctx, channelID, messageID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.DiscordMessageResponse), args.Error(1)
}

func (m *MockDiscordClient) DeferInteraction(ctx context.Context, interaction models.InteractionRef, ephemeral bool) error {
	args := m.Called(ctx, interaction, ephemeral)
	return args.Error(0)
}

func (m *MockDiscordClient) EditInteractionResponse(ctx context.Context, interaction models.InteractionRef, content string) error {
	args := m.Called(ctx, interaction, content)
	return args.Error(0)
}

func (m *MockDiscordClient) RespondToInteraction(
	ctx context.Context,
	interaction models.InteractionRef,
	content string,
	ephemeral bool,
) error {
	args := m.Called(ctx, interaction, content, ephemeral)
	return args.Error(0)
}

func (m *MockDiscordClient) OverwriteCommands(
	ctx context.Context,
	appID, guildID string,
	commands []models.CommandDescriptor,
) ([]clients.DiscordRemoteCommand, error) {
	args := m.Called(ctx, appID, guildID, commands)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.DiscordRemoteCommand), args.Error(1)
}
