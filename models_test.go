package signon_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-signon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"USER@Example.COM", "user@example.com"},
		{"  user@example.com  ", "user@example.com"},
		{"user@example.com", "user@example.com"},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, signon.NormalizeEmail(tc.input))
	}
}

func TestVerificationCodeIsExpired(t *testing.T) {
	now := time.Now()

	t.Run("future expiry", func(t *testing.T) {
		future := now.Add(time.Minute)
		code := &signon.VerificationCode{ExpiresAt: &future}
		assert.False(t, code.IsExpired(now))
	})

	t.Run("past expiry", func(t *testing.T) {
		past := now.Add(-time.Minute)
		code := &signon.VerificationCode{ExpiresAt: &past}
		assert.True(t, code.IsExpired(now))
	})

	t.Run("no expiry never expires", func(t *testing.T) {
		code := &signon.VerificationCode{}
		assert.False(t, code.IsExpired(now))
	})
}

func TestVerificationCodeMarkConsumed(t *testing.T) {
	now := time.Now()
	code := &signon.VerificationCode{Status: signon.CodePendingStatus}

	got := code.MarkConsumed(now)

	assert.Same(t, code, got)
	assert.Equal(t, signon.CodeConsumedStatus, code.Status)
	require.NotNil(t, code.ConsumedAt)
	assert.Equal(t, now, *code.ConsumedAt)
}

func TestRoles(t *testing.T) {
	t.Run("IsValidRole", func(t *testing.T) {
		assert.True(t, signon.IsValidRole(signon.RoleMember))
		assert.True(t, signon.IsValidRole(signon.RoleOwner))
		assert.False(t, signon.IsValidRole("superuser"))
	})

	t.Run("RoleIsAtLeast", func(t *testing.T) {
		assert.True(t, signon.RoleIsAtLeast(signon.RoleAdmin, signon.RoleMember))
		assert.True(t, signon.RoleIsAtLeast(signon.RoleMember, signon.RoleMember))
		assert.False(t, signon.RoleIsAtLeast(signon.RoleGuest, signon.RoleAdmin))
	})

	t.Run("ParseRole", func(t *testing.T) {
		role, ok := signon.ParseRole("admin")
		assert.True(t, ok)
		assert.Equal(t, signon.RoleAdmin, role)

		_, ok = signon.ParseRole("nope")
		assert.False(t, ok)
	})
}
