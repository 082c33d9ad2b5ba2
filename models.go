package signon

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleGuest is a guest role (ie. view)
	RoleGuest UserRole = "guest"
	// RoleMember is a member (i.e. view, edit)
	RoleMember UserRole = "member"
	// RoleAdmin is an admin role (i.e. view, edit, create)
	RoleAdmin UserRole = "admin"
	// RoleOwner is an admin role (i.e. view, edit, create, delete)
	RoleOwner UserRole = "owner"
)

// User is the user model. Email is stored lower-cased; Username is stored
// in its sanitized form.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"password_hash,omitempty"`
	EmailVerified bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	VerifiedAt    *time.Time `bun:"verified_at,nullzero" json:"verified_at,omitempty"`
	LoggedInAt    *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// NormalizeEmail applies the storage form for email addresses.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VerificationPurpose scopes what a code proves
type VerificationPurpose = string

const (
	// PurposeSignUpVerification is the only supported purpose: proving
	// control of the address used during sign up.
	PurposeSignUpVerification VerificationPurpose = "sign-up-verification"
)

const (
	// CodePendingStatus is the initial status of a dispatched code
	CodePendingStatus = "pending"
	// CodeConsumedStatus marks a code that verified an address
	CodeConsumedStatus = "consumed"
	// CodeExpiredStatus marks a code that aged out before use
	CodeExpiredStatus = "expired"
)

// VerificationCode is the ephemeral one-time code record. A row is only
// ever created for an email that already has a matching User.
type VerificationCode struct {
	bun.BaseModel `bun:"table:verification_codes,alias:vrc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,notnull" json:"user_id,omitempty"`
	User          *User      `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Code          string     `bun:"code,notnull" json:"code,omitempty"`
	Purpose       string     `bun:"purpose,notnull" json:"purpose,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	ExpiresAt     *time.Time `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	ConsumedAt    *time.Time `bun:"consumed_at,nullzero" json:"consumed_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// IsExpired reports whether the code aged out at the given instant.
func (v *VerificationCode) IsExpired(now time.Time) bool {
	if v.ExpiresAt == nil {
		return false
	}
	return now.After(*v.ExpiresAt)
}

// MarkConsumed flips the code into its terminal consumed state.
func (v *VerificationCode) MarkConsumed(now time.Time) *VerificationCode {
	v.Status = CodeConsumedStatus
	v.ConsumedAt = &now
	return v
}
