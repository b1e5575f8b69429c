package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// ResendTransport sends messages through the Resend HTTP API.
type ResendTransport struct {
	client *resend.Client
}

// NewResendTransport creates a transport authenticated with apiKey.
func NewResendTransport(apiKey string) *ResendTransport {
	return &ResendTransport{client: resend.NewClient(apiKey)}
}

// Send delivers msg via Resend.
func (t *ResendTransport) Send(ctx context.Context, msg Message) error {
	resp, err := t.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	slog.Info("email sent", "id", resp.Id, "subject", msg.Subject)
	return nil
}

// LogTransport logs messages instead of sending them. Used when no email
// API key is configured.
type LogTransport struct{}

// Send logs msg.
func (LogTransport) Send(_ context.Context, msg Message) error {
	slog.Info("email not sent, no transport configured",
		"to", msg.To, "subject", msg.Subject, "bytes", len(msg.HTML))
	return nil
}
