// Package events publishes pipeline notifications (page rendered, roots
// synced) to NATS for external consumers. Publishing is strictly optional;
// a nil Publisher is a silent no-op.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docbrowse/internal/logfields"
)

// Event types emitted by the server.
const (
	TypePageRendered = "page_rendered"
	TypeRootsSynced  = "roots_synced"
)

// Event is the wire format of a published notification.
type Event struct {
	Type      string    `json:"type"`
	Module    string    `json:"module,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends events to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect establishes the NATS connection. The connection reconnects on its
// own; publish failures after that are logged, not propagated.
func Connect(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

// Publish emits an event. Safe on a nil receiver.
func (p *Publisher) Publish(eventType, module, detail string) {
	if p == nil || p.conn == nil {
		return
	}
	payload, err := json.Marshal(Event{
		Type:      eventType,
		Module:    module,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		slog.Debug("Event publish failed", logfields.Error(err))
	}
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
