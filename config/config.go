package config

import (
	"fmt"
	"log"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/samber/mo"

	"chxbot/core"
)

const DefaultPrefix = "!"

var validate = validator.New()

// FatalConfigError means the process must not start
type FatalConfigError struct {
	Key string
	Err error
}

func (e *FatalConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *FatalConfigError) Unwrap() error {
	return e.Err
}

type AlertConfig struct {
	SlackWebhookURL string
	Environment     string
	LogsURL         string
}

// IsConfigured returns true if HandlerFault alerts can be delivered
func (c AlertConfig) IsConfigured() bool {
	return c.SlackWebhookURL != ""
}

type StatusConfig struct {
	Port               string
	CORSAllowedOrigins string
}

// IsConfigured returns true if the status HTTP server should be started
func (c StatusConfig) IsConfigured() bool {
	return c.Port != ""
}

// Settings is resolved once at startup and passed by value afterwards.
// An absent optional identifier disables its feature.
type Settings struct {
	Token            string
	CommandScope     mo.Option[string]
	AutoRoleID       mo.Option[string]
	WelcomeChannelID mo.Option[string]
	LogChannelID     mo.Option[string]
	Prefix           string

	Alerts AlertConfig
	Status StatusConfig
}

// environment mirrors the raw variables; legacy names from earlier deployments are still honoured
type environment struct {
	Token                string `env:"DISCORD_TOKEN"`
	GuildID              string `env:"GUILD_ID"`
	Prefix               string `env:"PREFIX,default=!"`
	AutoRoleID           string `env:"AUTO_ROLE_ID"`
	LegacyAutoRoleID     string `env:"CARGO_ID"`
	WelcomeChannelID     string `env:"WELCOME_CHANNEL_ID"`
	LegacyWelcomeChannel string `env:"CANAL_ID"`
	LogChannelID         string `env:"LOG_CHANNEL_ID"`
	Port                 string `env:"PORT"`
	CORSAllowedOrigins   string `env:"CORS_ALLOWED_ORIGINS,default=*"`
	SlackAlertWebhookURL string `env:"SLACK_ALERT_WEBHOOK_URL"`
	Environment          string `env:"ENVIRONMENT,default=dev"`
	ServerLogsURL        string `env:"SERVER_LOGS_URL"`
}

// LoadConfig reads the given env files (".env" when none) and then the process environment.
// Variables already set in the environment win over the files.
func LoadConfig(envFiles ...string) (Settings, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Printf("⚠️ Could not load env file %v, continuing with system env vars", envFiles)
	}

	var raw environment
	if _, err := env.UnmarshalFromEnviron(&raw); err != nil {
		return Settings{}, fmt.Errorf("failed to read environment: %w", err)
	}

	return resolve(raw)
}

func resolve(raw environment) (Settings, error) {
	if raw.Token == "" {
		return Settings{}, &FatalConfigError{
			Key: "DISCORD_TOKEN",
			Err: fmt.Errorf("%w: set it in .env (local) or in the host's environment variables", core.ErrMissingCredential),
		}
	}

	autoRole, _ := lo.Coalesce(raw.AutoRoleID, raw.LegacyAutoRoleID)
	welcomeChannel, _ := lo.Coalesce(raw.WelcomeChannelID, raw.LegacyWelcomeChannel)

	settings := Settings{
		Token:            raw.Token,
		CommandScope:     optionalSnowflake("GUILD_ID", raw.GuildID),
		AutoRoleID:       optionalSnowflake("AUTO_ROLE_ID", autoRole),
		WelcomeChannelID: optionalSnowflake("WELCOME_CHANNEL_ID", welcomeChannel),
		LogChannelID:     optionalSnowflake("LOG_CHANNEL_ID", raw.LogChannelID),
		Prefix:           lo.Ternary(raw.Prefix == "", DefaultPrefix, raw.Prefix),
		Alerts: AlertConfig{
			SlackWebhookURL: raw.SlackAlertWebhookURL,
			Environment:     raw.Environment,
			LogsURL:         raw.ServerLogsURL,
		},
		Status: StatusConfig{
			Port:               raw.Port,
			CORSAllowedOrigins: raw.CORSAllowedOrigins,
		},
	}

	logFeature("Command scope", settings.CommandScope, "commands will be published globally")
	logFeature("Auto-role", settings.AutoRoleID, "new members will not receive a role")
	logFeature("Welcome channel", settings.WelcomeChannelID, "welcome messages are disabled")
	logFeature("Log channel", settings.LogChannelID, "startup notices are disabled")
	if !settings.Alerts.IsConfigured() {
		log.Printf("⚠️ Slack alerting not configured - handler faults will only be logged")
	}

	return settings, nil
}

// optionalSnowflake treats an empty or malformed identifier as absent
func optionalSnowflake(key, value string) mo.Option[string] {
	if value == "" {
		return mo.None[string]()
	}
	if err := validate.Var(value, "number,min=1,max=20"); err != nil {
		log.Printf("⚠️ %s=%q is not a valid identifier - feature disabled", key, value)
		return mo.None[string]()
	}
	return mo.Some(value)
}

func logFeature(name string, value mo.Option[string], disabledNote string) {
	if id, ok := value.Get(); ok {
		log.Printf("✅ %s configured (%s)", name, id)
		return
	}
	log.Printf("⚠️ %s not configured - %s", name, disabledNote)
}
