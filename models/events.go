package models

import (
	"fmt"

	"github.com/samber/mo"
)

type EventKind string

const (
	EventKindReady           EventKind = "ready"
	EventKindMessageReceived EventKind = "message_received"
	EventKindMemberJoined    EventKind = "member_joined"
	EventKindCommandInvoked  EventKind = "command_invoked"
)

// InboundEvent is the closed set of gateway events the router understands.
// Only types in this package can implement it.
type InboundEvent interface {
	Kind() EventKind
	// ActorID identifies who caused the event; events from one actor are handled in order
	ActorID() string
	inboundEvent()
}

// Actor is the user behind an event
type Actor struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string // empty when the user has no avatar
	Bot         bool
}

// Mention returns the platform mention markup for the actor
func (a Actor) Mention() string {
	return fmt.Sprintf("<@%s>", a.ID)
}

type ReadyEvent struct {
	BotUser Actor
	Guilds  int
}

func (e ReadyEvent) Kind() EventKind { return EventKindReady }
func (e ReadyEvent) ActorID() string { return e.BotUser.ID }
func (ReadyEvent) inboundEvent() {}

type MessageReceivedEvent struct {
	MessageID string
	GuildID   string
	ChannelID string
	Author    Actor
	Content   string
}

func (e MessageReceivedEvent) Kind() EventKind { return EventKindMessageReceived }
func (e MessageReceivedEvent) ActorID() string { return e.Author.ID }
func (MessageReceivedEvent) inboundEvent() {}

type MemberJoinedEvent struct {
	GuildID string
	Member  Actor
}

func (e MemberJoinedEvent) Kind() EventKind { return EventKindMemberJoined }
func (e MemberJoinedEvent) ActorID() string { return e.Member.ID }
func (MemberJoinedEvent) inboundEvent() {}

// InteractionRef is what the platform needs to answer a slash command invocation
type InteractionRef struct {
	ID    string
	AppID string
	Token string
}

// CommandOption is one typed option value supplied with a slash command.
// Value holds a string for string/channel/user options, int64 for integers and bool for booleans.
type CommandOption struct {
	Name  string
	Type  ParamType
	Value any
}

type CommandInvokedEvent struct {
	Interaction InteractionRef
	GuildID     string
	ChannelID   string
	Caller      Actor
	// CallerPermissions are the caller's resolved permissions in ChannelID
	CallerPermissions Permission
	CommandName       string
	Options           []CommandOption
}

func (e CommandInvokedEvent) Kind() EventKind { return EventKindCommandInvoked }
func (e CommandInvokedEvent) ActorID() string { return e.Caller.ID }
func (CommandInvokedEvent) inboundEvent() {}

// StringOption returns the string value of the named option if it was supplied and non-empty.
// Channel and user options are returned as their identifiers.
func (e CommandInvokedEvent) StringOption(name string) mo.Option[string] {
	for _, opt := range e.Options {
		if opt.Name != name {
			continue
		}
		if s, ok := opt.Value.(string); ok && s != "" {
			return mo.Some(s)
		}
		return mo.None[string]()
	}
	return mo.None[string]()
}

func (e CommandInvokedEvent) IntOption(name string) mo.Option[int64] {
	for _, opt := range e.Options {
		if opt.Name == name {
			if v, ok := opt.Value.(int64); ok {
				return mo.Some(v)
			}
		}
	}
	return mo.None[int64]()
}

func (e CommandInvokedEvent) BoolOption(name string) mo.Option[bool] {
	for _, opt := range e.Options {
		if opt.Name == name {
			if v, ok := opt.Value.(bool); ok {
				return mo.Some(v)
			}
		}
	}
	return mo.None[bool]()
}
