package signon

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// VerificationCodes stores pending one-time codes.
type VerificationCodes interface {
	repository.Repository[*VerificationCode]

	GetPending(ctx context.Context, email string, purpose VerificationPurpose) (*VerificationCode, error)
	GetPendingTx(ctx context.Context, tx bun.IDB, email string, purpose VerificationPurpose) (*VerificationCode, error)

	Consume(ctx context.Context, code *VerificationCode) (*VerificationCode, error)
	ConsumeTx(ctx context.Context, tx bun.IDB, code *VerificationCode) (*VerificationCode, error)
}

type verificationCodes struct {
	repository.Repository[*VerificationCode]
	db *bun.DB
}

var (
	_ VerificationCodes                        = (*verificationCodes)(nil)
	_ repository.Repository[*VerificationCode] = (*verificationCodes)(nil)
)

func NewVerificationCodesRepository(db *bun.DB) VerificationCodes {
	handlers := repository.ModelHandlers[*VerificationCode]{
		NewRecord: func() *VerificationCode {
			return &VerificationCode{}
		},
		GetID: func(record *VerificationCode) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *VerificationCode, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
	}

	return &verificationCodes{
		Repository: repository.NewRepository(db, handlers),
		db:         db,
	}
}

// GetPending returns the most recent pending code for an address, one row.
func (r *verificationCodes) GetPending(ctx context.Context, email string, purpose VerificationPurpose) (*VerificationCode, error) {
	return r.GetPendingTx(ctx, r.db, email, purpose)
}

func (r *verificationCodes) GetPendingTx(ctx context.Context, tx bun.IDB, email string, purpose VerificationPurpose) (*VerificationCode, error) {
	record := &VerificationCode{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Where("?TableAlias.purpose = ?", purpose).
		Where("?TableAlias.status = ?", CodePendingStatus).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email":   NormalizeEmail(email),
					"purpose": purpose,
				})
		}
		return nil, err
	}

	return record, nil
}

// Consume flips a pending code into its terminal consumed state.
func (r *verificationCodes) Consume(ctx context.Context, code *VerificationCode) (*VerificationCode, error) {
	return r.ConsumeTx(ctx, r.db, code)
}

func (r *verificationCodes) ConsumeTx(ctx context.Context, tx bun.IDB, code *VerificationCode) (*VerificationCode, error) {
	return r.Repository.UpdateTx(ctx, tx, code, repository.UpdateByID(code.ID.String()))
}
