// Package notify delivers user-facing mail through an external gateway.
// Services enqueue messages after their transaction commits; a dispatcher
// goroutine drains the queue so slow gateways never block request handling.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Kind identifies the template a message renders with on the gateway side.
type Kind string

const (
	KindVerificationCode Kind = "verification_code"
	KindPasswordReset    Kind = "password_reset"
	KindWelcome          Kind = "welcome"
	KindInvitation       Kind = "invitation"
)

// Message is a single outbound mail.
type Message struct {
	Kind Kind              `json:"kind"`
	To   string            `json:"to"`
	Vars map[string]string `json:"vars,omitempty"`
}

// Mailer sends a single message. Implementations handle their own retry
// policy; callers treat an error as delivery exhaustion.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// GatewayConfig configures the HTTP mail gateway client.
type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// GatewayMailer posts messages to a JSON mail gateway.
type GatewayMailer struct {
	client *resty.Client
}

// NewGatewayMailer builds a client with a request timeout and three retry
// attempts backed by exponential wait, starting at one second.
func NewGatewayMailer(cfg GatewayConfig) *GatewayMailer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &GatewayMailer{client: client}
}

func (m *GatewayMailer) Send(ctx context.Context, msg Message) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(msg).
		Post("/v1/mail")
	if err != nil {
		return fmt.Errorf("notify: send %s to %s: %w", msg.Kind, msg.To, err)
	}
	if resp.IsError() {
		return fmt.Errorf("notify: send %s to %s: gateway returned %s", msg.Kind, msg.To, resp.Status())
	}
	return nil
}

// NopMailer discards messages. Used when no gateway is configured and in
// tests that do not assert on delivery.
type NopMailer struct{}

func (NopMailer) Send(context.Context, Message) error { return nil }
