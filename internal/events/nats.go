package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
	"git.home.luguber.info/inful/stopwatchd/internal/logfields"
)

// Publisher is the part of a NATS connection the forwarder needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSForwarder publishes stopwatch events as JSON on a NATS subject.
// Subjects are suffixed with the event type, e.g. "stopwatchd.events.lapped".
type NATSForwarder struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
}

// DialNATS connects to url and returns a forwarder for subject.
func DialNATS(url, subject string) (*NATSForwarder, error) {
	conn, err := nats.Connect(url, nats.Name("stopwatchd"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryTransport, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS event forwarding enabled", "url", url, logfields.Subject(subject))
	f := NewNATSForwarder(conn, subject)
	f.conn = conn
	return f, nil
}

// NewNATSForwarder wraps an existing publisher.
func NewNATSForwarder(pub Publisher, subject string) *NATSForwarder {
	return &NATSForwarder{pub: pub, subject: subject}
}

// Subject returns the subject evt is published on.
func (f *NATSForwarder) Subject(evt StopwatchEvent) string {
	return f.subject + "." + string(evt.Type)
}

// Forward publishes one event.
func (f *NATSForwarder) Forward(evt StopwatchEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal event").Build()
	}
	if err := f.pub.Publish(f.Subject(evt), data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryTransport, "failed to publish event").
			WithContext("subject", f.Subject(evt)).
			Build()
	}
	return nil
}

// Run forwards every event from ch until it closes or ctx ends.
func (f *NATSForwarder) Run(ctx context.Context, ch <-chan StopwatchEvent) {
	Consume(ctx, ch, func(_ context.Context, evt StopwatchEvent) {
		if err := f.Forward(evt); err != nil {
			slog.Warn("Event forwarding failed",
				logfields.EventType(string(evt.Type)),
				logfields.StopwatchID(evt.StopwatchID),
				logfields.Error(err))
			return
		}
		slog.Debug("Forwarded event", logfields.EventType(string(evt.Type)), logfields.Subject(f.Subject(evt)))
	})
}

// Close drains and closes the NATS connection if the forwarder owns one.
func (f *NATSForwarder) Close() {
	if f.conn == nil {
		return
	}
	if err := f.conn.Drain(); err != nil {
		f.conn.Close()
	}
}
