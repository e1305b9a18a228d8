// Package nats publishes analysis reports via a NATS server.
package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
)

// conn is the part of *nats.Conn used by the publisher.
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

type (
	NatsPublisher struct {
		conn conn
		l    *log.Logger
	}
	Option func(*NatsPublisher)
)

// Connect opens a connection to url. timeout limits the connection attempt.
func Connect(url string, timeout time.Duration) (*nats.Conn, error) {
	c, err := nats.Connect(url,
		nats.Name("racetelemetry-analyzer"),
		nats.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", url, err)
	}
	return c, nil
}

func NewNatsPublisher(c *nats.Conn, opts ...Option) *NatsPublisher {
	return newPublisher(c, opts...)
}

func newPublisher(c conn, opts ...Option) *NatsPublisher {
	ret := &NatsPublisher{
		conn: c,
		l:    log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func WithLogger(l *log.Logger) Option {
	return func(n *NatsPublisher) {
		n.l = l
	}
}

// Publish sends data and waits until the server has processed it or ctx is done.
func (n *NatsPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush after publish to %s: %w", subject, err)
	}
	n.l.Debug("published",
		log.String("subject", subject),
		log.Int("bytes", len(data)))
	return nil
}

// Close drains pending messages and closes the connection.
func (n *NatsPublisher) Close() error {
	return n.conn.Drain()
}
