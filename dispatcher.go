package signon

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/sethvargo/go-retry"
)

// DefaultCodeExpiration is the window in which a dispatched code stays
// pending.
const DefaultCodeExpiration = 10 * time.Minute

// Dispatcher sends verification codes over email. Sends are registration
// gated: only addresses with an existing account ever receive a code, and
// a failed registration lookup refuses the send.
type Dispatcher struct {
	users    Users
	codes    VerificationCodes
	mailer   Mailer
	sender   string
	expiry   time.Duration
	attempts uint64
	backoff  time.Duration
	logger   Logger
	provider LoggerProvider
	sink     ActivitySink
}

// NewDispatcher creates a verification code dispatcher. Delivery is a
// single attempt unless WithRetryAttempts raises it.
func NewDispatcher(repo RepositoryManager, mailer Mailer) *Dispatcher {
	loggerProvider, logger := ResolveLogger("signon.dispatcher", nil, nil)
	return &Dispatcher{
		users:    repo.Users(),
		codes:    repo.VerificationCodes(),
		mailer:   mailer,
		sender:   DefaultSenderAddress,
		expiry:   DefaultCodeExpiration,
		attempts: 1,
		backoff:  time.Second,
		logger:   logger,
		provider: loggerProvider,
		sink:     noopActivitySink{},
	}
}

// WithSender overrides the from address. Empty keeps the provider default.
func (d *Dispatcher) WithSender(address string) *Dispatcher {
	if address != "" {
		d.sender = address
	}
	return d
}

// WithExpiration overrides the pending window for dispatched codes.
func (d *Dispatcher) WithExpiration(window time.Duration) *Dispatcher {
	if window > 0 {
		d.expiry = window
	}
	return d
}

// WithRetryAttempts sets total delivery attempts and the base backoff
// between them. Attempts below 1 are treated as 1 (fire and forget).
func (d *Dispatcher) WithRetryAttempts(attempts int, backoff time.Duration) *Dispatcher {
	if attempts >= 1 {
		d.attempts = uint64(attempts)
	}
	if backoff > 0 {
		d.backoff = backoff
	}
	return d
}

// WithConfig applies delivery options from a DispatchConfig. Zero values
// keep the current settings.
func (d *Dispatcher) WithConfig(cfg DispatchConfig) *Dispatcher {
	if cfg == nil {
		return d
	}

	d.WithSender(cfg.GetSenderAddress())

	if expr := cfg.GetOTPExpiration(); expr != "" {
		if window, err := time.ParseDuration(expr); err == nil {
			d.WithExpiration(window)
		} else {
			d.logger.Warn("invalid otp expiration %q: %v", expr, err)
		}
	}

	if attempts := cfg.GetDeliveryAttempts(); attempts > 1 {
		d.WithRetryAttempts(attempts, d.backoff)
	}

	return d
}

func (d *Dispatcher) WithLogger(l Logger) *Dispatcher {
	d.provider, d.logger = ResolveLogger("signon.dispatcher", d.provider, l)
	return d
}

// WithActivitySink configures an ActivitySink for dispatch outcomes.
func (d *Dispatcher) WithActivitySink(sink ActivitySink) *Dispatcher {
	d.sink = normalizeActivitySink(sink)
	return d
}

// Dispatch sends the code to the address. It checks registration first and
// fails closed: unknown addresses and failed lookups never reach the
// provider. On success the pending code row is persisted before delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, email, code string) (SendReceipt, error) {
	registered, err := d.users.IsRegistered(ctx, email)
	if err != nil {
		d.logger.Error("dispatch registration lookup failed", "email", email, "error", err)
		d.emit(ctx, ActivityEventDispatchFailure, email, map[string]any{"error": err.Error()})
		return SendReceipt{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email registration")
	}

	if !registered {
		d.logger.Warn("dispatch refused for unregistered email", "email", email)
		d.emit(ctx, ActivityEventDispatchRefused, email, nil)
		return SendReceipt{}, ErrUnregisteredEmail
	}

	user, err := d.users.GetByEmail(ctx, email)
	if err != nil {
		d.logger.Error("dispatch user lookup failed", "email", email, "error", err)
		return SendReceipt{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for dispatch")
	}

	expiresAt := time.Now().Add(d.expiry)
	record := &VerificationCode{
		Email:     NormalizeEmail(email),
		UserID:    &user.ID,
		Code:      code,
		Purpose:   PurposeSignUpVerification,
		Status:    CodePendingStatus,
		ExpiresAt: &expiresAt,
	}

	if _, err := d.codes.Create(ctx, record); err != nil {
		d.logger.Error("dispatch failed to persist code", "email", email, "error", err)
		return SendReceipt{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist verification code")
	}

	d.logger.Info("sending verification email", "email", email, "otp", code)

	receipt, err := d.deliver(ctx, NewVerificationEmail(d.sender, email, code))
	if err != nil {
		d.logger.Error("failed to send verification email", "email", email, "error", err)
		d.emit(ctx, ActivityEventDispatchFailure, email, map[string]any{"error": err.Error()})
		return SendReceipt{}, NewDeliveryError(err)
	}

	d.logger.Info("verification email sent", "email", email, "receipt", receipt.ID)
	d.emit(ctx, ActivityEventDispatchSuccess, email, map[string]any{"receipt": receipt.ID})

	return receipt, nil
}

// deliver performs the provider call, retrying only when attempts > 1.
func (d *Dispatcher) deliver(ctx context.Context, msg Email) (SendReceipt, error) {
	if d.attempts <= 1 {
		return d.mailer.Send(ctx, msg)
	}

	var receipt SendReceipt
	backoff := retry.WithMaxRetries(d.attempts-1, retry.NewExponential(d.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var sendErr error
		receipt, sendErr = d.mailer.Send(ctx, msg)
		if sendErr != nil {
			return retry.RetryableError(sendErr)
		}
		return nil
	})

	return receipt, err
}

func (d *Dispatcher) emit(ctx context.Context, eventType ActivityEventType, email string, metadata map[string]any) {
	sink := normalizeActivitySink(d.sink)

	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["email"] = email

	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{Type: "system"},
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := sink.Record(ctx, event); err != nil {
		d.logger.Warn("activity sink record error: %v", err)
	}
}
