// Package notify relays new leads to a profile's notification addresses.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/zenGate-Global/booking-funnel/platform/go/formschema"
)

const (
	DefaultBaseURL     = "https://api.resend.com"
	DefaultFromAddress = "no-reply@example.com"
)

// ErrSendFailed wraps non-2xx replies from the mail provider.
var ErrSendFailed = errors.New("send email failed")

// LeadNotification is everything the summary email shows.
type LeadNotification struct {
	// LeadID keys the provider-side idempotency check when set.
	LeadID         uuid.UUID
	To             []string
	ProfileName    string
	ProfileSlug    string
	Phone          string
	Email          string
	WhatsAppNumber string
	Values         []formschema.LabelledValue
}

// Notifier delivers lead notifications.
type Notifier interface {
	NotifyLead(ctx context.Context, n LeadNotification) error
}

// Config configures the Resend relay. An empty APIKey disables sending.
type Config struct {
	APIKey  string
	From    string
	BaseURL string
	Timeout time.Duration
}

// New returns a Resend client, or a Disabled notifier when no key is configured.
func New(cfg Config) Notifier {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Disabled{}
	}
	return NewResendClient(cfg)
}

// Disabled drops every notification.
type Disabled struct{}

func (Disabled) NotifyLead(context.Context, LeadNotification) error { return nil }

// ResendClient posts plain text emails to the Resend API.
type ResendClient struct {
	http *resty.Client
	from string
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func NewResendClient(cfg Config) *ResendClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		from = DefaultFromAddress
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ResendClient{http: client, from: from}
}

// NotifyLead sends one summary email. Blank recipients are skipped and a
// notification without recipients is a no-op.
func (c *ResendClient) NotifyLead(ctx context.Context, n LeadNotification) error {
	to := make([]string, 0, len(n.To))
	for _, addr := range n.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return nil
	}

	var failure resendError
	req := c.http.R().SetContext(ctx)
	if n.LeadID != uuid.Nil {
		req.SetHeader("Idempotency-Key", IdempotencyKey(n.LeadID))
	}
	resp, err := req.
		SetBody(resendEmail{
			From:    c.from,
			To:      to,
			Subject: Subject(n.ProfileName),
			Text:    Summary(n),
		}).
		SetError(&failure).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("post resend email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status %d: %s", ErrSendFailed, resp.StatusCode(), failure.Message)
	}
	return nil
}

// IdempotencyKey lets the provider drop a resend of the same lead email.
func IdempotencyKey(leadID uuid.UUID) string {
	return "lead-" + leadID.String()
}

// Subject is the email subject for a new lead.
func Subject(profileName string) string {
	return "New quote request for " + profileName
}

// Summary renders the plain text body.
func Summary(n LeadNotification) string {
	var b strings.Builder
	b.WriteString("New quote request\n\n")
	fmt.Fprintf(&b, "Profile: %s (/%s)\n", n.ProfileName, n.ProfileSlug)
	fmt.Fprintf(&b, "Phone: %s\n", orDash(n.Phone))
	fmt.Fprintf(&b, "Email: %s\n", orDash(n.Email))
	fmt.Fprintf(&b, "WhatsApp: %s\n", orDash(n.WhatsAppNumber))
	if len(n.Values) > 0 {
		b.WriteString("\n")
		for _, v := range n.Values {
			fmt.Fprintf(&b, "%s: %s\n", v.Label, v.Value)
		}
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
