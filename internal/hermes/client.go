package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectLeadSaved is published once per lead after the store accepted it.
const SubjectLeadSaved = "intake.lead.saved"

// LeadSavedEvent is the payload of SubjectLeadSaved. The transcript is left out;
// consumers fetch it from the lead store by id.
type LeadSavedEvent struct {
	LeadID          string `json:"lead_id"`
	SessionID       string `json:"session_id"`
	Source          string `json:"source"`
	Trigger         string `json:"trigger"`
	Intent          string `json:"intent"`
	ServiceInterest string `json:"service_interest"`
	LeadScore       int    `json:"lead_score"`
	LeadTemperature string `json:"lead_temperature"`
	CreatedAt       string `json:"created_at"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("intake"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// PublishLeadSaved announces a stored lead.
func (c *Client) PublishLeadSaved(_ context.Context, evt LeadSavedEvent) error {
	return c.Publish(SubjectLeadSaved, evt)
}

func (c *Client) Close() {
	c.conn.Close()
}
