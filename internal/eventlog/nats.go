package eventlog

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/mealprep/internal/config"
	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
)

// NATSPublisher publishes events to a JetStream subject.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSPublisher connects to the broker named in cfg.
func NewNATSPublisher(cfg config.EventsConfig) (*NATSPublisher, error) {
	if !cfg.Enabled {
		return nil, apperrors.New(apperrors.CategoryConfig, apperrors.SeverityError, "event publishing is disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.CategoryRuntime, "connect to NATS")
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, apperrors.WrapError(err, apperrors.CategoryRuntime, "create JetStream context")
	}

	slog.Info("NATS event publisher initialized", "url", cfg.NATSURL, "subject", cfg.Subject)

	return &NATSPublisher{conn: conn, js: js, subject: cfg.Subject}, nil
}

// Publish sends the event to the configured subject.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return apperrors.WrapError(err, apperrors.CategoryRuntime, "marshal event")
	}

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return apperrors.WrapError(err, apperrors.CategoryRuntime, "publish event")
	}
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
