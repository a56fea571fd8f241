package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/jessevdk/go-flags"
	"github.com/rs/cors"
	"github.com/samber/lo"

	"chxbot/clients"
	discordclient "chxbot/clients/discord"
	"chxbot/config"
	"chxbot/handlers"
	"chxbot/middleware"
	commandsservice "chxbot/services/commands"
	commandsusecase "chxbot/usecases/commands"
	"chxbot/usecases/onboarding"
	"chxbot/usecases/router"
	"chxbot/usecases/startup"
	"chxbot/utils"
)

type Options struct {
	EnvFile  string `long:"env-file" default:".env" description:"Env file to read before the process environment"`
	SyncOnly bool   `long:"sync-only" description:"Publish the slash command catalog and exit"`
	LockDir  string `long:"lock-dir" description:"Directory for the single-instance lock (defaults to the system temp dir)"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run(opts Options) error {
	settings, err := config.LoadConfig(opts.EnvFile)
	if err != nil {
		return err
	}

	session, err := discordclient.NewSession(settings.Token)
	if err != nil {
		return err
	}
	discordClient := discordclient.NewDiscordClient(session)

	registry, err := commandsservice.NewCommandRegistry(commandsservice.DefaultDescriptors()...)
	if err != nil {
		return err
	}

	if opts.SyncOnly {
		return runSyncOnly(session, discordClient, registry, settings)
	}

	instanceLock, err := utils.NewInstanceLock(lo.Ternary(opts.LockDir == "", utils.DefaultLockDir(), opts.LockDir), settings.Token)
	if err != nil {
		return err
	}
	if err := instanceLock.TryLock(); err != nil {
		return err
	}
	defer func() {
		if err := instanceLock.Unlock(); err != nil {
			log.Printf("⚠️ Failed to release instance lock: %v", err)
		}
	}()

	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.SlackAlertConfig{
		WebhookURL:  settings.Alerts.SlackWebhookURL,
		Environment: settings.Alerts.Environment,
		AppName:     "chxbot",
		LogsURL:     settings.Alerts.LogsURL,
	})

	onboardingUseCase := onboarding.NewOnboardingUseCase(discordClient, settings)
	commandsUseCase := commandsusecase.NewCommandsUseCase(discordClient, registry)
	startupUseCase := startup.NewStartupUseCase(discordClient, settings)

	eventRouter := router.NewEventRouter(
		discordClient,
		onboardingUseCase,
		commandsUseCase,
		startupUseCase,
		alertMiddleware,
		settings,
	)
	botHandler := handlers.NewDiscordEventsHandler(session, eventRouter)

	if err := botHandler.StartBot(); err != nil {
		eventRouter.Stop()
		return err
	}

	syncCommands(discordClient, registry, settings)

	var server *http.Server
	if settings.Status.IsConfigured() {
		server = newStatusServer(settings.Status, discordClient, registry, alertMiddleware)
	} else {
		log.Printf("⚠️ PORT not set - status server disabled")
	}

	return handleGracefulShutdown(server, botHandler, eventRouter)
}

// runSyncOnly connects without event handlers, publishes the catalog and disconnects
func runSyncOnly(
	session *discordgo.Session,
	discordClient clients.DiscordClient,
	registry *commandsservice.CommandRegistry,
	settings config.Settings,
) error {
	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer func() { _ = session.Close() }()

	if result := syncCommands(discordClient, registry, settings); !result.OK() {
		return result.Err
	}
	return nil
}

// syncCommands publishes the command catalog once the session knows its application ID.
// A failed publish leaves stale remote commands but never stops the bot.
func syncCommands(
	discordClient clients.DiscordClient,
	registry *commandsservice.CommandRegistry,
	settings config.Settings,
) commandsservice.SyncResult {
	botUser, err := discordClient.GetBotUser()
	if err != nil {
		log.Printf("⚠️ Skipping command synchronization: %v", err)
		return commandsservice.SyncResult{Scope: settings.CommandScope, Err: err}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result := registry.Synchronize(ctx, discordClient, botUser.ID, settings.CommandScope)
	if !result.OK() {
		log.Printf("⚠️ Slash commands may be out of date: %v", result.Err)
	}
	return result
}

func newStatusServer(
	cfg config.StatusConfig,
	discordClient clients.DiscordClient,
	registry *commandsservice.CommandRegistry,
	alertMiddleware *middleware.ErrorAlertMiddleware,
) *http.Server {
	muxRouter := mux.NewRouter()
	handlers.NewStatusHTTPHandler(discordClient, registry).SetupEndpoints(muxRouter)

	allowedOrigins := lo.Map(strings.Split(cfg.CORSAllowedOrigins, ","), func(origin string, _ int) string {
		return strings.TrimSpace(origin)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(muxRouter)),
		ReadHeaderTimeout: 30 * time.Second,
	}
}

func handleGracefulShutdown(server *http.Server, botHandler *handlers.DiscordEventsHandler, eventRouter *router.EventRouter) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	if server != nil {
		go func() {
			log.Printf("✅ Status server listening on http://localhost%s", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("❌ Server error: %v", err)
			}
		}()
	}

	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var shutdownErr error
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("❌ Server shutdown error: %v", err)
			shutdownErr = err
		}
	}

	// Close the gateway first so no new events arrive while the router drains
	botHandler.StopBot()
	eventRouter.Stop()

	log.Printf("✅ Bot stopped gracefully")
	return shutdownErr
}
