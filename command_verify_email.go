package signon

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// VerifyEmailMessage consumes a pending verification code.
type VerifyEmailMessage struct {
	Email      string `json:"email"`
	Code       string `json:"code"`
	OnResponse func(resp *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

type VerifyEmailResponse struct {
	Verified bool
	UserID   string
}

// VerifyEmailHandler checks the submitted code against the pending record
// and marks the account's email verified. Codes are single use: the status
// flip happens in the same transaction as the user update.
type VerifyEmailHandler struct {
	repo RepositoryManager
	sink ActivitySink
}

// NewVerifyEmailHandler creates a new VerifyEmailHandler
func NewVerifyEmailHandler(repo RepositoryManager) *VerifyEmailHandler {
	return &VerifyEmailHandler{repo: repo, sink: noopActivitySink{}}
}

// WithActivitySink emits an event for every successfully verified email
func (h *VerifyEmailHandler) WithActivitySink(sink ActivitySink) *VerifyEmailHandler {
	h.sink = normalizeActivitySink(sink)
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	resp := &VerifyEmailResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := h.repo.VerificationCodes().GetPendingTx(ctx, tx, event.Email, PurposeSignUpVerification)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrCodeInvalid
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve verification code")
		}

		if record.IsExpired(time.Now()) {
			return ErrCodeExpired
		}

		if record.Code != event.Code {
			return ErrCodeInvalid
		}

		if _, err := h.repo.VerificationCodes().ConsumeTx(ctx, tx, record.MarkConsumed(time.Now())); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume verification code")
		}

		if record.UserID != nil {
			if err := h.repo.Users().MarkEmailVerifiedTx(ctx, tx, *record.UserID); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email verified")
			}
			resp.UserID = record.UserID.String()
		}

		resp.Verified = true
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify email")
	}

	// Best effort, the verification already committed
	_ = normalizeActivitySink(h.sink).Record(ctx, ActivityEvent{
		EventType:  ActivityEventEmailVerified,
		Actor:      ActorRef{ID: resp.UserID, Type: "user"},
		UserID:     resp.UserID,
		Metadata:   map[string]any{"email": event.Email},
		OccurredAt: time.Now(),
	})

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
