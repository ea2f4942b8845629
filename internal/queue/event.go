// Package queue defines message payloads exchanged over the message broker.
package queue

// AlertQueueName is the durable queue carrying operational alerts.
const AlertQueueName = "api-client-manager.alerts"

// AlertEvent is published whenever an operation fails unexpectedly.  The
// consumer forwards it to the alert webhook.
type AlertEvent struct {
    Message     string `json:"message"`
    Environment string `json:"environment"`
    RaisedAt    string `json:"raised_at"`
}
