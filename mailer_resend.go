package signon

import (
	"context"

	"github.com/resend/resend-go/v2"
)

// ResendMailer delivers email through the Resend API.
type ResendMailer struct {
	client *resend.Client
}

var _ Mailer = (*ResendMailer)(nil)

// NewResendMailer creates a Mailer backed by Resend.
func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey)}
}

// Send implements Mailer. Provider errors are returned as-is; the
// dispatcher owns classification and retry policy.
func (m *ResendMailer) Send(ctx context.Context, msg Email) (SendReceipt, error) {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return SendReceipt{}, err
	}

	return SendReceipt{ID: sent.Id, Provider: "resend"}, nil
}
