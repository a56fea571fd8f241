package router

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gammazero/workerpool"

	"chxbot/clients"
	"chxbot/config"
	"chxbot/core"
	"chxbot/middleware"
	"chxbot/models"
	"chxbot/utils"
)

const handlerTimeout = 30 * time.Second

type OnboardingHandler interface {
	OnMemberJoined(ctx context.Context, event models.MemberJoinedEvent) models.OnboardingOutcome
}

type CommandHandler interface {
	HandleCommand(ctx context.Context, event models.CommandInvokedEvent) error
}

type StartupNotifier interface {
	NotifyOnline(ctx context.Context, botName string) error
}

// EventRouter fans gateway events out to their handlers.
// Each actor gets its own sequential lane: one actor's events run in arrival order,
// different actors never queue behind each other, and Dispatch never waits on handler work.
type EventRouter struct {
	discordClient clients.DiscordClient
	onboarding    OnboardingHandler
	commands      CommandHandler
	startup       StartupNotifier
	alerts        *middleware.ErrorAlertMiddleware
	prefix        string

	mu         sync.Mutex
	lanes      map[string]*lane
	inflight   sync.WaitGroup
	background sync.WaitGroup
	ctx        context.Context
}

// lane is an actor's sequential pool; pending counts events queued or running on it
type lane struct {
	pool    *workerpool.WorkerPool
	pending int
}

func NewEventRouter(
	discordClient clients.DiscordClient,
	onboarding OnboardingHandler,
	commands CommandHandler,
	startup StartupNotifier,
	alerts *middleware.ErrorAlertMiddleware,
	settings config.Settings,
) *EventRouter {
	return &EventRouter{
		discordClient: discordClient,
		onboarding:    onboarding,
		commands:      commands,
		startup:       startup,
		alerts:        alerts,
		prefix:        settings.Prefix,
		lanes:         make(map[string]*lane),
		ctx:           context.Background(),
	}
}

// Dispatch queues the event on its actor's lane and returns immediately
func (r *EventRouter) Dispatch(event models.InboundEvent) {
	actorID := event.ActorID()
	handler := r.alerts.WrapEventHandler(event.Kind(), actorID, core.NewID("evt"), func() error {
		ctx, cancel := context.WithTimeout(r.ctx, handlerTimeout)
		defer cancel()
		return r.route(ctx, event)
	})

	r.inflight.Add(1)
	r.acquireLane(actorID).Submit(func() {
		defer r.releaseLane(actorID)
		handler()
	})
}

// Stop waits for every queued event and background notice to finish
func (r *EventRouter) Stop() {
	log.Printf("📋 Draining %d active actor lanes", r.activeLanes())

	r.inflight.Wait()
	r.background.Wait()
	log.Printf("✅ Event router stopped")
}

// acquireLane returns the actor's sequential pool, creating it on first use
func (r *EventRouter) acquireLane(actorID string) *workerpool.WorkerPool {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lanes[actorID]
	if !ok {
		l = &lane{pool: workerpool.New(1)} // Sequential per actor
		r.lanes[actorID] = l
	}
	l.pending++
	return l.pool
}

// releaseLane retires the actor's pool once nothing is left on it
func (r *EventRouter) releaseLane(actorID string) {
	defer r.inflight.Done()

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lanes[actorID]
	utils.AssertInvariant(ok && l.pending > 0, "released a lane with no pending events")
	l.pending--
	if l.pending == 0 {
		delete(r.lanes, actorID)
		// Stop waits for the running task, which is the caller
		go l.pool.Stop()
	}
}

func (r *EventRouter) activeLanes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lanes)
}

func (r *EventRouter) route(ctx context.Context, event models.InboundEvent) error {
	switch e := event.(type) {
	case models.ReadyEvent:
		r.handleReady(e)
		return nil
	case models.MessageReceivedEvent:
		return r.handleMessage(ctx, e)
	case models.MemberJoinedEvent:
		return r.handleMemberJoined(ctx, e)
	case models.CommandInvokedEvent:
		return r.commands.HandleCommand(ctx, e)
	default:
		return nil
	}
}

// handleReady posts the online notice without holding up the bot's lane
func (r *EventRouter) handleReady(event models.ReadyEvent) {
	log.Printf("🤖 Gateway ready as %s (%d guilds)", event.BotUser.Username, event.Guilds)

	notify := r.alerts.WrapBackgroundTask("online notice", func() error {
		ctx, cancel := context.WithTimeout(r.ctx, handlerTimeout)
		defer cancel()
		return r.startup.NotifyOnline(ctx, event.BotUser.Username)
	})

	r.background.Add(1)
	go func() {
		defer r.background.Done()
		_ = notify()
	}()
}

// handleMemberJoined never fails: step faults live in the outcome, which the workflow logs itself
func (r *EventRouter) handleMemberJoined(ctx context.Context, event models.MemberJoinedEvent) error {
	_ = r.onboarding.OnMemberJoined(ctx, event)
	return nil
}
