// Package dispatcher routes inbound robot messages by their type
// discriminant. Decode failures are strictly local: they are counted
// and logged, and never reach the sampling loop or the channel.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nerftank/console/pkg/streaming"
)

// HandlerFunc processes one inbound message's raw payload.
type HandlerFunc func(raw []byte) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	logged bool
}

// Logged adds debug logging around the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Dispatcher routes inbound messages to registered handlers.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger

	// OTel metrics
	processed metric.Int64Counter
	malformed metric.Int64Counter
	unknown   metric.Int64Counter
}

// New creates a Dispatcher with the given logger. Uses the global
// OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}

	m := meter()

	var err error

	d.processed, err = m.Int64Counter(
		"inbound.messages.processed",
		metric.WithDescription("Total inbound messages routed to a handler"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.malformed, err = m.Int64Counter(
		"inbound.messages.malformed",
		metric.WithDescription("Total inbound messages that failed to decode"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating malformed counter: %w", err)
	}

	d.unknown, err = m.Int64Counter(
		"inbound.messages.unknown",
		metric.WithDescription("Total inbound messages with an unrecognized type"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating unknown counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given message type.
func (d *Dispatcher) Register(msgType string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h
	if cfg.logged {
		handler = d.withLogging(msgType, handler)
	}

	d.handlers[msgType] = handler
}

// HasHandler returns true if a handler is registered for the type.
func (d *Dispatcher) HasHandler(msgType string) bool {
	_, ok := d.handlers[msgType]
	return ok
}

// DispatchInbound decodes the type discriminant and routes the raw
// payload. All failure modes are absorbed here.
func (d *Dispatcher) DispatchInbound(raw []byte) {
	var env streaming.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.malformed.Add(context.Background(), 1)
		d.logger.Error("Dropping malformed inbound payload", "error", err, "bytes", len(raw))
		return
	}

	h, ok := d.handlers[env.Type]
	if !ok {
		d.unknown.Add(context.Background(), 1)
		d.logger.Debug("No handler for inbound type", "type", env.Type)
		return
	}

	typeAttr := attribute.String("type", env.Type)
	if err := h(raw); err != nil {
		d.logger.Error("Inbound handler failed", "type", env.Type, "error", err)
	}
	d.processed.Add(context.Background(), 1, metric.WithAttributes(typeAttr))
}

func (d *Dispatcher) withLogging(msgType string, h HandlerFunc) HandlerFunc {
	return func(raw []byte) error {
		start := time.Now()
		d.logger.Debug("handling inbound message", "type", msgType, "bytes", len(raw))

		err := h(raw)

		if err != nil {
			d.logger.Error("inbound message failed", "type", msgType, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("inbound message complete", "type", msgType, "duration", time.Since(start))
		}

		return err
	}
}
