// Package notify delivers operational alerts.  Alerts travel through the
// RabbitMQ alert queue when it is reachable and are posted straight to
// the Slack webhook otherwise.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const slackTitle = "`API CLIENT MANAGER MS`"

// Slack posts alerts to an incoming webhook.
type Slack struct {
	webhook string
	env     string
	http    *http.Client
}

// NewSlack returns a sender for webhook.  Messages are only sent when env
// is development or production.
func NewSlack(webhook, env string, timeout time.Duration) *Slack {
	return &Slack{webhook: webhook, env: strings.ToLower(env), http: &http.Client{Timeout: timeout}}
}

// Enabled reports whether alerts should leave the process at all.
func (s *Slack) Enabled() bool {
	return s.webhook != "" && (s.env == "development" || s.env == "production")
}

// Payload renders the webhook body for message.
func Payload(message string) ([]byte, error) {
	return json.Marshal(map[string]string{
		"text": slackTitle + "\n```Error: " + message + "```",
	})
}

// Send posts message to the webhook.
func (s *Slack) Send(ctx context.Context, message string) error {
	body, err := Payload(message)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhook, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook answered %d", resp.StatusCode)
	}
	return nil
}
