package queue

import (
    "context"
    "encoding/json"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends alert events to RabbitMQ.  Each call dials its own
// connection so a broker outage never leaves a broken channel behind.
type Publisher struct {
    url   string
    queue string
}

// NewPublisher returns a publisher for the alert queue at url.
func NewPublisher(url string) *Publisher {
    return &Publisher{url: url, queue: AlertQueueName}
}

// Publish marshals event and publishes it as a persistent message.  Errors
// are logged and returned so the caller can fall back.
func (p *Publisher) Publish(ctx context.Context, event AlertEvent) error {
    conn, err := amqp.Dial(p.url)
    if err != nil {
        slog.Warn("rabbitmq: dial failed", "err", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        slog.Warn("rabbitmq: channel open failed", "err", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // durable so alerts survive broker restarts
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        slog.Warn("rabbitmq: queue declare failed", "queue", p.queue, "err", err)
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
        slog.Warn("rabbitmq: publish failed", "queue", p.queue, "err", err)
        return err
    }
    return nil
}
