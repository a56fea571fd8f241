package middleware

import (
	"context"
	"crypto/md5"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/slack-go/slack"

	"chxbot/models"
	"chxbot/utils"
)

type SlackAlertConfig struct {
	WebhookURL  string
	Environment string
	AppName     string
	LogsURL     string
}

type webhookPoster func(ctx context.Context, url string, msg *slack.WebhookMessage) error

type ErrorAlertMiddleware struct {
	config        SlackAlertConfig
	alertedErrors map[string]time.Time // hash -> last alert time
	mutex         sync.Mutex
	alertCooldown time.Duration
	postWebhook   webhookPoster
}

func NewErrorAlertMiddleware(config SlackAlertConfig) *ErrorAlertMiddleware {
	return &ErrorAlertMiddleware{
		config:        config,
		alertedErrors: make(map[string]time.Time),
		alertCooldown: 10 * time.Minute, // Don't alert same error more than once per 10min
		postWebhook:   slack.PostWebhookContext,
	}
}

// HTTP Middleware - wraps HTTP handlers
func (m *ErrorAlertMiddleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer m.recoverAndAlert(fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path), func() {
			http.Error(w, "internal server error", http.StatusInternalServerError)
		})
		next.ServeHTTP(w, r)
	})
}

// WrapEventHandler isolates one event handler run: errors and panics are logged with
// the event context and alerted, and never reach the caller.
func (m *ErrorAlertMiddleware) WrapEventHandler(
	kind models.EventKind,
	actorID string,
	dispatchID string,
	handler func() error,
) func() {
	eventContext := fmt.Sprintf("event %s (actor: %s, dispatch: %s)", kind, actorID, dispatchID)
	return func() {
		defer m.recoverAndAlert(eventContext, nil)

		if err := handler(); err != nil {
			log.Printf("❌ Handler failed for %s: %v", eventContext, err)
			m.alertOnError(err, eventContext)
		}
	}
}

// Background Task Wrapper
func (m *ErrorAlertMiddleware) WrapBackgroundTask(taskName string, task func() error) func() error {
	return func() (err error) {
		taskContext := fmt.Sprintf("Background task: %s", taskName)
		defer m.recoverAndAlert(taskContext, func() {
			err = fmt.Errorf("background task %s panicked", taskName)
		})

		if err := task(); err != nil {
			log.Printf("❌ %s failed: %v", taskContext, err)
			m.alertOnError(err, taskContext)
			return err
		}
		return nil
	}
}

// Core error alerting logic
func (m *ErrorAlertMiddleware) alertOnError(err error, alertContext string) {
	errorMsg := fmt.Sprintf("%s: %v", alertContext, err)
	if !m.shouldAlert(errorMsg) {
		return
	}

	go m.sendSlackAlert(errorMsg, alertContext)
}

// shouldAlert deduplicates identical errors within the cooldown window
func (m *ErrorAlertMiddleware) shouldAlert(errorMsg string) bool {
	hash := fmt.Sprintf("%x", md5.Sum([]byte(errorMsg)))

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if lastAlert, exists := m.alertedErrors[hash]; exists && time.Since(lastAlert) < m.alertCooldown {
		return false
	}
	m.alertedErrors[hash] = time.Now()
	return true
}

func (m *ErrorAlertMiddleware) recoverAndAlert(alertContext string, onPanic func()) {
	if r := recover(); r != nil {
		errorMsg := fmt.Sprintf("%s: PANIC - %v", alertContext, r)
		log.Printf("❌ %s", errorMsg)
		if onPanic != nil {
			onPanic()
		}
		if m.shouldAlert(errorMsg) {
			go m.sendSlackAlert(errorMsg, alertContext+" (PANIC)")
		}
	}
}

func (m *ErrorAlertMiddleware) sendSlackAlert(errorMsg, alertContext string) {
	if m.config.WebhookURL == "" {
		return // Slack alerts disabled
	}

	envTag := ""
	if m.config.Environment == "dev" {
		envTag = "[dev] "
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(
			slack.PlainTextType,
			fmt.Sprintf("🚨 %s[%s] Error Alert", envTag, m.config.AppName),
			true,
			false,
		)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Service:* %s", m.config.AppName), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Environment:* %s", m.config.Environment), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Context:* %s", alertContext), false, false),
		}, nil),
		slack.NewSectionBlock(slack.NewTextBlockObject(
			slack.MarkdownType,
			fmt.Sprintf("*Error:*\n```%s```", utils.Truncate(errorMsg, 2900)),
			false,
			false,
		), nil, nil),
	}
	if m.config.LogsURL != "" {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(
			slack.MarkdownType,
			fmt.Sprintf("🔗 <%s|View Logs>", m.config.LogsURL),
			false,
			false,
		), nil, nil))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := &slack.WebhookMessage{
		Text:   errorMsg,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
	if err := m.postWebhook(ctx, m.config.WebhookURL, msg); err != nil {
		log.Printf("❌ Failed to send Slack alert: %v", err)
	}
}
