package models

import (
	"fmt"

	"github.com/samber/mo"
)

// OnboardingOutcome records what happened to one member-join event.
// It is only logged, never persisted.
type OnboardingOutcome struct {
	GuildID      string
	UserID       string
	RoleGranted  bool
	RoleError    mo.Option[string]
	WelcomeSent  bool
	WelcomeError mo.Option[string]
}

func (o OnboardingOutcome) Failed() bool {
	return o.RoleError.IsPresent() || o.WelcomeError.IsPresent()
}

func (o OnboardingOutcome) String() string {
	return fmt.Sprintf(
		"guild=%s user=%s role_granted=%t role_error=%q welcome_sent=%t welcome_error=%q",
		o.GuildID,
		o.UserID,
		o.RoleGranted,
		o.RoleError.OrEmpty(),
		o.WelcomeSent,
		o.WelcomeError.OrEmpty(),
	)
}
