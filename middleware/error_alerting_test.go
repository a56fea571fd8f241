package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chxbot/models"
)

type capturedAlert struct {
	url string
	msg *slack.WebhookMessage
}

func newTestMiddleware(webhookURL string) (*ErrorAlertMiddleware, chan capturedAlert) {
	alerts := make(chan capturedAlert, 10)
	m := NewErrorAlertMiddleware(SlackAlertConfig{
		WebhookURL:  webhookURL,
		Environment: "dev",
		AppName:     "chxbot",
		LogsURL:     "https://logs.test",
	})
	m.postWebhook = func(_ context.Context, url string, msg *slack.WebhookMessage) error {
		alerts <- capturedAlert{url: url, msg: msg}
		return nil
	}
	return m, alerts
}

func waitForAlert(t *testing.T, alerts chan capturedAlert) capturedAlert {
	t.Helper()
	select {
	case alert := <-alerts:
		return alert
	case <-time.After(2 * time.Second):
		t.Fatal("expected a Slack alert")
		return capturedAlert{}
	}
}

func assertNoAlert(t *testing.T, alerts chan capturedAlert) {
	t.Helper()
	select {
	case alert := <-alerts:
		t.Fatalf("unexpected alert: %s", alert.msg.Text)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWrapEventHandler(t *testing.T) {
	t.Run("handler_error_is_alerted_and_swallowed", func(t *testing.T) {
		m, alerts := newTestMiddleware("https://hooks.slack.test/1")

		wrapped := m.WrapEventHandler(models.EventKindMemberJoined, "user-1", "evt_1", func() error {
			return errors.New("role grant exploded")
		})
		assert.NotPanics(t, wrapped)

		alert := waitForAlert(t, alerts)
		assert.Equal(t, "https://hooks.slack.test/1", alert.url)
		assert.Contains(t, alert.msg.Text, "member_joined")
		assert.Contains(t, alert.msg.Text, "user-1")
		assert.Contains(t, alert.msg.Text, "role grant exploded")
		require.NotNil(t, alert.msg.Blocks)
		assert.Len(t, alert.msg.Blocks.BlockSet, 4)
	})

	t.Run("handler_panic_is_recovered_and_alerted", func(t *testing.T) {
		m, alerts := newTestMiddleware("https://hooks.slack.test/1")

		wrapped := m.WrapEventHandler(models.EventKindCommandInvoked, "user-2", "evt_2", func() error {
			panic("nil map")
		})
		assert.NotPanics(t, wrapped)

		alert := waitForAlert(t, alerts)
		assert.Contains(t, alert.msg.Text, "PANIC - nil map")
	})

	t.Run("successful_handler_is_silent", func(t *testing.T) {
		m, alerts := newTestMiddleware("https://hooks.slack.test/1")
		ran := false

		m.WrapEventHandler(models.EventKindReady, "bot", "evt_3", func() error {
			ran = true
			return nil
		})()

		assert.True(t, ran)
		assertNoAlert(t, alerts)
	})

	t.Run("identical_errors_are_alerted_once_per_cooldown", func(t *testing.T) {
		m, alerts := newTestMiddleware("https://hooks.slack.test/1")
		failing := m.WrapEventHandler(models.EventKindMemberJoined, "user-1", "evt_same", func() error {
			return errors.New("same failure")
		})

		failing()
		failing()

		waitForAlert(t, alerts)
		assertNoAlert(t, alerts)
	})

	t.Run("no_webhook_configured_sends_nothing", func(t *testing.T) {
		m, alerts := newTestMiddleware("")

		m.WrapEventHandler(models.EventKindMemberJoined, "user-1", "evt_4", func() error {
			return errors.New("boom")
		})()

		assertNoAlert(t, alerts)
	})
}

func TestWrapBackgroundTask(t *testing.T) {
	m, alerts := newTestMiddleware("https://hooks.slack.test/1")

	err := m.WrapBackgroundTask("startup-notice", func() error { return errors.New("channel gone") })()
	assert.EqualError(t, err, "channel gone")
	waitForAlert(t, alerts)

	err = m.WrapBackgroundTask("panicky", func() error { panic("boom") })()
	assert.ErrorContains(t, err, "panicked")

	assert.NoError(t, m.WrapBackgroundTask("fine", func() error { return nil })())
}

func TestHTTPMiddlewareRecoversPanics(t *testing.T) {
	m, _ := newTestMiddleware("")
	handler := m.HTTPMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler bug")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
