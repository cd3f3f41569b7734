package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes JSON-encoded events to a NATS subject per notification.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the broker at url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn}, nil
}

var _ Publisher = (*NATSPublisher)(nil)

// Publish marshals the payload as JSON and publishes it on subject.
func (p *NATSPublisher) Publish(_ context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, data)
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	p.conn.Close()
}
