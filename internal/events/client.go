package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Client publishes domain events. Publishing is best-effort: callers log
// failures and carry on.
type Client interface {
	Publish(subject string, data interface{}) error
	Subscribe(subject string, handler func(subject string, data []byte)) error
	Close()
}

const (
	source = "teacheasy"

	// how long Close waits for outstanding publish acks
	flushTimeout = 2 * time.Second
)

// NATSClient publishes envelopes to the TEACHEASY_EVENTS JetStream stream
// without waiting for acks on the caller's goroutine.
type NATSClient struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	subs   []*nats.Subscription
	logger *slog.Logger
	now    func() time.Time
}

func NewNATSClient(ctx context.Context, url string, logger *slog.Logger) (*NATSClient, error) {
	nc, err := nats.Connect(url,
		nats.Name(source),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc,
		jetstream.WithPublishAsyncMaxPending(1024),
		jetstream.WithPublishAsyncErrHandler(func(_ jetstream.JetStream, msg *nats.Msg, err error) {
			logger.Warn("event not persisted", "subject", msg.Subject, "error", err)
		}),
	)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	c := &NATSClient{conn: nc, js: js, logger: logger, now: time.Now}
	if err := c.ensureStream(ctx); err != nil {
		logger.Warn("failed to ensure event stream", "stream", StreamName, "error", err)
	}
	return c, nil
}

func (c *NATSClient) ensureStream(ctx context.Context) error {
	maxAge, err := time.ParseDuration(StreamMaxAge)
	if err != nil {
		return err
	}
	_, err = c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "TeachEasy catalog, application and maintenance events",
		Subjects:    []string{SubjectAll},
		MaxAge:      maxAge,
		Duplicates:  2 * time.Minute,
	})
	return err
}

// newMessage wraps data in an Envelope addressed to subject.
func newMessage(subject string, data interface{}, at time.Time) (*nats.Msg, *Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s payload: %w", subject, err)
	}
	env := &Envelope{
		ID:      uuid.NewString(),
		Subject: subject,
		Source:  source,
		Time:    at.UTC(),
		Data:    raw,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s envelope: %w", subject, err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = body
	msg.Header.Set("Content-Type", "application/json")
	return msg, env, nil
}

func (c *NATSClient) Publish(subject string, data interface{}) error {
	msg, env, err := newMessage(subject, data, c.now())
	if err != nil {
		return err
	}
	if _, err := c.js.PublishMsgAsync(msg, jetstream.WithMsgID(env.ID)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe delivers core NATS messages on subject. Used for lightweight
// requests such as on-demand maintenance; it does not consume the stream.
func (c *NATSClient) Subscribe(subject string, handler func(string, []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	return nil
}

// Close drops subscriptions, waits briefly for pending acks and drains the
// connection.
func (c *NATSClient) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	select {
	case <-c.js.PublishAsyncComplete():
	case <-time.After(flushTimeout):
		c.logger.Warn("closing with unacknowledged events", "pending", c.js.PublishAsyncPending())
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}
