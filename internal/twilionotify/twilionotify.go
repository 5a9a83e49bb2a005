// Package twilionotify sends WhatsApp notifications to the shop owner via
// the Twilio API. The storefront never messages visitors directly; it only
// alerts the owner about new order requests and pending reviews.
package twilionotify

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/SURIYA-8273/nursery-website-1-sub000/internal/messaging"
)

// Notifier delivers an owner-facing notification message.
type Notifier interface {
	Notify(ctx context.Context, body string) error
}

// Opts holds configuration options for the Twilio notification client.
type Opts struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	OwnerPhone string
}

// Option defines a configuration option for the Twilio notification client.
type Option func(*Opts)

// WithAccountSID sets the Twilio account SID.
func WithAccountSID(sid string) Option {
	return func(o *Opts) { o.AccountSID = sid }
}

// WithAuthToken sets the Twilio auth token.
func WithAuthToken(token string) Option {
	return func(o *Opts) { o.AuthToken = token }
}

// WithFromNumber sets the sending WhatsApp number.
func WithFromNumber(from string) Option {
	return func(o *Opts) { o.FromNumber = from }
}

// WithOwnerPhone sets the owner's WhatsApp number that receives notifications.
func WithOwnerPhone(phone string) Option {
	return func(o *Opts) { o.OwnerPhone = phone }
}

// Client wraps the Twilio REST API for owner WhatsApp notifications.
type Client struct {
	client     *twilio.RestClient
	fromNumber string // WhatsApp number in "whatsapp:+1234567890" format
	ownerPhone string // canonical digits
}

func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	// Fallback to environment variables if not provided via options
	if cfg.AccountSID == "" {
		cfg.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		cfg.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	}
	if cfg.FromNumber == "" {
		cfg.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")
	}
	if cfg.OwnerPhone == "" {
		cfg.OwnerPhone = os.Getenv("OWNER_WHATSAPP_NUMBER")
	}
	slog.Debug("Twilio notify config loaded",
		"AccountSID_set", cfg.AccountSID != "",
		"AuthToken_set", cfg.AuthToken != "",
		"FromNumber_set", cfg.FromNumber != "",
		"OwnerPhone_set", cfg.OwnerPhone != "")

	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("account SID and auth token must be provided")
	}
	if cfg.FromNumber == "" {
		return nil, fmt.Errorf("from number must be provided")
	}
	owner, err := messaging.CanonicalizePhone(cfg.OwnerPhone)
	if err != nil {
		return nil, fmt.Errorf("invalid owner phone: %w", err)
	}

	client := twilio.NewRestClientWithParams(
		twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		},
	)

	return &Client{
		client:     client,
		fromNumber: cfg.FromNumber,
		ownerPhone: owner,
	}, nil
}

// Notify sends a WhatsApp message to the shop owner using the Twilio API.
func (c *Client) Notify(ctx context.Context, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:+" + c.ownerPhone)
	params.SetFrom(c.fromNumber)
	params.SetBody(body)

	_, err := c.client.Api.CreateMessage(params)
	if err != nil {
		slog.Error("Twilio Notify failed", "error", err)
		return fmt.Errorf("failed to notify owner: %w", err)
	}

	slog.Debug("Twilio owner notification sent")
	return nil
}

// MockClient records notifications for testing.
type MockClient struct {
	Notifications []string
	Err           error
}

func NewMockClient() *MockClient {
	return &MockClient{Notifications: []string{}}
}

func (m *MockClient) Notify(ctx context.Context, body string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Notifications = append(m.Notifications, body)
	return nil
}
