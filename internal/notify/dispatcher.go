package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/api-client-manager/internal/queue"
	"github.com/iliyamo/api-client-manager/internal/safego"
	"github.com/iliyamo/api-client-manager/internal/telemetry"
)

// Publisher enqueues alert events.
type Publisher interface {
	Publish(ctx context.Context, event queue.AlertEvent) error
}

// Dispatcher implements the managers' Alerter.  Notify returns at once;
// delivery runs in a background goroutine with its own timeout.
type Dispatcher struct {
	slack     *Slack
	publisher Publisher
	env       string
	timeout   time.Duration
}

// NewDispatcher wires the dispatcher.  publisher may be nil, in which case
// every alert is posted directly.
func NewDispatcher(slack *Slack, publisher Publisher, env string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{slack: slack, publisher: publisher, env: env, timeout: timeout}
}

// Notify schedules message for delivery.
func (d *Dispatcher) Notify(message string) {
	safego.Go("alert-dispatch", func() { d.dispatch(message) })
}

func (d *Dispatcher) dispatch(message string) {
	if !d.slack.Enabled() {
		telemetry.AlertsTotal.WithLabelValues("skipped").Inc()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if d.publisher != nil {
		ev := queue.AlertEvent{Message: message, Environment: d.env, RaisedAt: time.Now().UTC().Format(time.RFC3339)}
		if err := d.publisher.Publish(ctx, ev); err == nil {
			telemetry.AlertsTotal.WithLabelValues("queued").Inc()
			return
		}
	}
	if err := d.slack.Send(ctx, message); err != nil {
		slog.Warn("alert delivery failed", "err", err)
		telemetry.AlertsTotal.WithLabelValues("failed").Inc()
		return
	}
	telemetry.AlertsTotal.WithLabelValues("direct").Inc()
}

// Deliver is the alert queue consumer: it posts a queued event to Slack.
func (d *Dispatcher) Deliver(ctx context.Context, ev queue.AlertEvent) error {
	if !d.slack.Enabled() {
		return nil
	}
	return d.slack.Send(ctx, ev.Message)
}
