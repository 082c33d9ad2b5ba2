package signon

import (
	"context"
	"fmt"
)

// DefaultSenderAddress is used when no sender is configured.
const DefaultSenderAddress = "onboarding@resend.dev"

// VerificationEmailSubject is the fixed subject line for code emails.
const VerificationEmailSubject = "Your verification code"

// Email is the outbound message handed to a Mailer.
type Email struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// SendReceipt is the provider acknowledgment for a delivered email.
type SendReceipt struct {
	ID       string
	Provider string
}

// Mailer delivers email through an external provider.
type Mailer interface {
	Send(ctx context.Context, msg Email) (SendReceipt, error)
}

// MailerFunc adapts a function to the Mailer interface.
type MailerFunc func(ctx context.Context, msg Email) (SendReceipt, error)

// Send implements Mailer.
func (f MailerFunc) Send(ctx context.Context, msg Email) (SendReceipt, error) {
	if f == nil {
		return SendReceipt{}, ErrNoEmptyString
	}
	return f(ctx, msg)
}

// NewVerificationEmail builds the code email for an address. The code is
// embedded in the body; subject and layout are fixed.
func NewVerificationEmail(from, to, code string) Email {
	if from == "" {
		from = DefaultSenderAddress
	}

	return Email{
		From:    from,
		To:      to,
		Subject: VerificationEmailSubject,
		HTML:    fmt.Sprintf("<p>Your verification code is: <strong>%s</strong></p>", code),
	}
}
