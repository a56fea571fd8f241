package commands

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"chxbot/clients"
	"chxbot/models"
)

const (
	CommandPing     = "ping"
	CommandAnnounce = "announce"

	AnnounceOptionTitle   = "title"
	AnnounceOptionBody    = "body"
	AnnounceOptionWhen    = "when"
	AnnounceOptionChannel = "channel"
)

var validate = validator.New()

// CommandPublisher is the part of the platform client the registry needs
type CommandPublisher interface {
	OverwriteCommands(ctx context.Context, appID, guildID string, commands []models.CommandDescriptor) ([]clients.DiscordRemoteCommand, error)
}

// CommandRegistry is the fixed set of slash commands the bot exposes
type CommandRegistry struct {
	descriptors []models.CommandDescriptor
	byName      map[string]models.CommandDescriptor
}

// SyncResult describes one catalog publish. Err holds the SyncWarning when publishing failed.
type SyncResult struct {
	Scope     mo.Option[string]
	Published []clients.DiscordRemoteCommand
	Err       error
}

func (r SyncResult) Global() bool {
	return r.Scope.IsAbsent()
}

func (r SyncResult) OK() bool {
	return r.Err == nil
}

// DefaultDescriptors declares the commands the bot ships with
func DefaultDescriptors() []models.CommandDescriptor {
	return []models.CommandDescriptor{
		{
			Name:        CommandPing,
			Description: "Shows that the bot is alive and its gateway latency.",
		},
		{
			Name:        CommandAnnounce,
			Description: "Sends a formatted announcement.",
			Parameters: []models.CommandParameter{
				{Name: AnnounceOptionTitle, Description: "Announcement title", Type: models.ParamTypeString, Required: true},
				{Name: AnnounceOptionBody, Description: "Main message", Type: models.ParamTypeString, Required: true},
				{Name: AnnounceOptionWhen, Description: "Date/time (optional)", Type: models.ParamTypeString},
				{Name: AnnounceOptionChannel, Description: "Target channel (optional)", Type: models.ParamTypeChannel},
			},
			RequiredPermission: mo.Some(models.PermissionManageMessages),
		},
	}
}

// NewCommandRegistry validates descriptors and freezes them.
// Duplicate names and malformed descriptors are rejected.
func NewCommandRegistry(descriptors ...models.CommandDescriptor) (*CommandRegistry, error) {
	byName := make(map[string]models.CommandDescriptor, len(descriptors))
	for _, d := range descriptors {
		if err := validateDescriptor(d); err != nil {
			return nil, err
		}
		if _, exists := byName[d.Name]; exists {
			return nil, fmt.Errorf("duplicate command name %q", d.Name)
		}
		byName[d.Name] = d
	}

	return &CommandRegistry{
		descriptors: slices.Clone(descriptors),
		byName:      byName,
	}, nil
}

func validateDescriptor(d models.CommandDescriptor) error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid command %q: %w", d.Name, err)
	}

	seenOptional := false
	paramNames := make(map[string]bool, len(d.Parameters))
	for _, p := range d.Parameters {
		if paramNames[p.Name] {
			return fmt.Errorf("invalid command %q: duplicate parameter %q", d.Name, p.Name)
		}
		paramNames[p.Name] = true

		if !p.Required {
			seenOptional = true
		} else if seenOptional {
			return fmt.Errorf("invalid command %q: required parameter %q follows an optional one", d.Name, p.Name)
		}
	}
	return nil
}

// Descriptors returns the commands in declaration order
func (r *CommandRegistry) Descriptors() []models.CommandDescriptor {
	out := make([]models.CommandDescriptor, len(r.descriptors))
	for i, d := range r.descriptors {
		d.Parameters = slices.Clone(d.Parameters)
		out[i] = d
	}
	return out
}

func (r *CommandRegistry) Lookup(name string) mo.Option[models.CommandDescriptor] {
	d, ok := r.byName[name]
	if !ok {
		return mo.None[models.CommandDescriptor]()
	}
	return mo.Some(d)
}

func (r *CommandRegistry) Names() []string {
	return lo.Map(r.descriptors, func(d models.CommandDescriptor, _ int) string { return d.Name })
}

// Synchronize publishes the registry to the platform.
// With a scope the commands are published only to that guild and show up within seconds;
// without one they are published globally, which the platform can take up to an hour to propagate.
// The publish replaces the remote catalog for the scope, so repeating it is idempotent.
// Failures are logged and returned in the result; they never stop the bot.
func (r *CommandRegistry) Synchronize(
	ctx context.Context,
	publisher CommandPublisher,
	appID string,
	scope mo.Option[string],
) SyncResult {
	result := SyncResult{Scope: scope}
	guildID := scope.OrEmpty()
	target := lo.Ternary(guildID == "", "global scope", "guild "+guildID)

	log.Printf("📋 Starting to synchronize %d commands to %s", len(r.descriptors), target)

	published, err := publisher.OverwriteCommands(ctx, appID, guildID, r.Descriptors())
	if err != nil {
		log.Printf("⚠️ Command synchronization to %s failed, remote commands may be stale: %v", target, err)
		result.Err = fmt.Errorf("failed to synchronize commands to %s: %w", target, err)
		return result
	}
	result.Published = published

	missing, unexpected := lo.Difference(r.Names(), lo.Map(published, func(c clients.DiscordRemoteCommand, _ int) string {
		return c.Name
	}))
	if len(missing) > 0 || len(unexpected) > 0 {
		log.Printf("⚠️ Remote catalog for %s differs from registry (missing: %v, unexpected: %v)", target, missing, unexpected)
	}

	if result.Global() {
		log.Printf("✅ Published %d global commands - propagation may take up to an hour", len(published))
	} else {
		log.Printf("✅ Published %d commands to %s", len(published), target)
	}
	return result
}
