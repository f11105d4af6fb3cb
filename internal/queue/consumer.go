package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// FeedConsumer listens to the suggestion queues and appends one line per
// message to a moderation feed file that moderators can tail.
type FeedConsumer struct {
    URL     string
    LogPath string
    Logger  *slog.Logger

    mu sync.Mutex // serialises appends from the two queue goroutines
}

// Run connects, consumes and reconnects with exponential backoff until ctx
// is cancelled.  Processing errors are logged and the message rejected so
// the server keeps running.
func (c *FeedConsumer) Run(ctx context.Context) error {
    if c.Logger == nil {
        c.Logger = slog.Default()
    }
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Logger.Warn("moderation feed: dial failed", "err", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Logger.Warn("moderation feed: consume loop ended, reconnecting", "err", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *FeedConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Logger.Warn("moderation feed: set QoS failed", "err", err)
    }

    queues := []string{QueueSuggestionSubmitted, QueueSuggestionResolved}
    deliveries := make([]<-chan amqp.Delivery, 0, len(queues))
    for _, q := range queues {
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", q, err)
        }
        msgs, err := ch.Consume(q, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", q, err)
        }
        deliveries = append(deliveries, msgs)
    }

    var wg sync.WaitGroup
    for i, msgs := range deliveries {
        wg.Add(1)
        go func(queue string, msgs <-chan amqp.Delivery) {
            defer wg.Done()
            for d := range msgs {
                if err := c.Handle(queue, d.Body); err != nil {
                    c.Logger.Warn("moderation feed: handle message failed", "queue", queue, "err", err)
                    _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                    continue
                }
                _ = d.Ack(false)
            }
        }(queues[i], msgs)
    }

    done := make(chan struct{})
    go func() { wg.Wait(); close(done) }()
    select {
    case <-ctx.Done():
        _ = ch.Close()
        <-done
        return ctx.Err()
    case <-done:
        return errors.New("deliveries channel closed")
    }
}

// Handle decodes one message from queue and appends its feed line.
func (c *FeedConsumer) Handle(queue string, body []byte) error {
    line, err := FeedLine(queue, body)
    if err != nil {
        return err
    }
    c.mu.Lock()
    defer c.mu.Unlock()
    if dir := filepath.Dir(c.LogPath); dir != "" {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return fmt.Errorf("mkdir feed dir: %w", err)
        }
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open feed file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write feed: %w", err)
    }
    return nil
}

// FeedLine renders a single newline-terminated line for a message body.
func FeedLine(queue string, body []byte) (string, error) {
    switch queue {
    case QueueSuggestionSubmitted:
        var ev SuggestionSubmittedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        target := "none"
        switch {
        case ev.EventID != nil:
            target = "event:" + *ev.EventID
        case ev.VenueID != nil:
            target = "venue:" + *ev.VenueID
        }
        return fmt.Sprintf("[%s] Suggestion submitted | id=%s | kind=%s | target=%s | value=%q\n",
            ev.SubmittedAt, ev.SuggestionID, ev.Kind, target, oneLine(ev.ProposedValue)), nil
    case QueueSuggestionResolved:
        var ev SuggestionResolvedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal: %w", err)
        }
        return fmt.Sprintf("[%s] Suggestion %s | id=%s | kind=%s | applied=%t | value=%q\n",
            ev.ResolvedAt, ev.Outcome, ev.SuggestionID, ev.Kind, ev.Applied, oneLine(ev.ProposedValue)), nil
    }
    return "", fmt.Errorf("unexpected queue %q", queue)
}

func oneLine(s string) string {
    return strings.Join(strings.Fields(s), " ")
}
