package core

import (
	"errors"
	"regexp"
)

var (
	// ErrNotFound is returned when a referenced role, channel or command does not exist
	ErrNotFound = errors.New("not found")

	// ErrMissingCredential is wrapped by startup errors for absent required settings
	ErrMissingCredential = errors.New("missing required credential")

	// ErrDeliveryForbidden means the bot lacks access or send permission on a target
	ErrDeliveryForbidden = errors.New("bot is not allowed to deliver to target")

	// ErrPermissionDenied means the invoking member lacks the rights a command requires
	ErrPermissionDenied = errors.New("permission denied")
)

var notFoundPattern = regexp.MustCompile(`(?i)not found|unknown (role|channel|member)`)

// IsNotFoundError checks if an error is a "not found" error.
// Platform errors that were not mapped to ErrNotFound are matched by message.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	return notFoundPattern.MatchString(err.Error())
}

// IsDeliveryForbidden reports whether err means the bot cannot post or act on the target
func IsDeliveryForbidden(err error) bool {
	return err != nil && errors.Is(err, ErrDeliveryForbidden)
}
