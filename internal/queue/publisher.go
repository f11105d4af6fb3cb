package queue

import (
    "context"
    "encoding/json"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends a payload to a named queue.  Callers treat failures as
// non-fatal: the database is the source of truth and messages only feed
// moderators and analytics.
type Publisher interface {
    Publish(ctx context.Context, queue string, payload any) error
}

// NopPublisher drops every message.  It is used when no broker is
// configured and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// AMQPPublisher dials RabbitMQ for each message.  Publishing volume is low
// (one message per vote or suggestion) so a pooled channel is not needed.
type AMQPPublisher struct {
    url    string
    logger *slog.Logger
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string, logger *slog.Logger) *AMQPPublisher {
    if logger == nil {
        logger = slog.Default()
    }
    return &AMQPPublisher{url: url, logger: logger}
}

// defaultDialTimeout bounds the dial and handshake when ctx has no deadline.
const defaultDialTimeout = 5 * time.Second

// dialTimeout returns the time left before ctx's deadline, or
// defaultDialTimeout when there is none.  An expired deadline still yields
// a tiny positive timeout so the dial fails fast instead of blocking.
func dialTimeout(ctx context.Context) time.Duration {
    dl, ok := ctx.Deadline()
    if !ok {
        return defaultDialTimeout
    }
    if left := time.Until(dl); left > 0 {
        return left
    }
    return time.Millisecond
}

// Publish declares the queue (durable, idempotent) and sends payload as a
// persistent JSON message on the default exchange.  The dial and AMQP
// handshake are bounded by ctx's deadline.
func (p *AMQPPublisher) Publish(ctx context.Context, queue string, payload any) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Locale: "en_US",
        Dial:   amqp.DefaultDial(dialTimeout(ctx)),
    })
    if err != nil {
        p.logger.Warn("rabbitmq dial failed", "queue", queue, "err", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.logger.Warn("rabbitmq channel open failed", "queue", queue, "err", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(
        queue, // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    ); err != nil {
        p.logger.Warn("rabbitmq queue declare failed", "queue", queue, "err", err)
        return err
    }

    body, err := json.Marshal(payload)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",    // default exchange
        queue, // routing key = queue name
        false, // mandatory
        false, // immediate
        pub,
    ); err != nil {
        p.logger.Warn("rabbitmq publish failed", "queue", queue, "err", err)
        return err
    }
    return nil
}
