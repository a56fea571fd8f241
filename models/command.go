package models

import "github.com/samber/mo"

type ParamType string

const (
	ParamTypeString  ParamType = "string"
	ParamTypeChannel ParamType = "channel"
	ParamTypeUser    ParamType = "user"
	ParamTypeInteger ParamType = "integer"
	ParamTypeBoolean ParamType = "boolean"
)

// CommandParameter is one typed option of a slash command
type CommandParameter struct {
	Name        string    `json:"name" validate:"required,min=1,max=32,lowercase"`
	Description string    `json:"description" validate:"required,min=1,max=100"`
	Type        ParamType `json:"type" validate:"required,oneof=string channel user integer boolean"`
	Required    bool      `json:"required"`
}

// CommandDescriptor declares an invokable slash command.
// Descriptors are fixed once the registry is built.
type CommandDescriptor struct {
	Name               string                `json:"name" validate:"required,min=1,max=32,lowercase"`
	Description        string                `json:"description" validate:"required,min=1,max=100"`
	Parameters         []CommandParameter    `json:"parameters" validate:"max=25,dive"`
	RequiredPermission mo.Option[Permission] `json:"required_permission"`
}
