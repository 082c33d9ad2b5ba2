package signon

import (
	"context"
	"reflect"
	"time"
)

// SignOn orchestrates credential sign-in and account sign-up. It is an
// explicitly constructed service: build one and hand it to your request
// handlers, there is no package-level instance.
type SignOn struct {
	provider        IdentityProvider
	repo            RepositoryManager
	dispatcher      *Dispatcher
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	otpLength       int
	sendOnSignUp    bool
	useHashid       bool
	signUpRole      UserRole
	logger          Logger
	tokenService    TokenService
	tokenValidator  TokenValidator
	activitySink    ActivitySink
}

var _ Authenticator = (*SignOn)(nil)

// NewSignOn returns a new sign-on service. Verification emails are only
// sent when a Dispatcher is configured via WithDispatcher; sign-up itself
// never fails because of delivery.
func NewSignOn(repo RepositoryManager, opts Config) *SignOn {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &SignOn{
		provider:        NewUserProvider(repo.Users()),
		repo:            repo,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		audience:        opts.GetAudience(),
		issuer:          opts.GetIssuer(),
		otpLength:       DefaultOTPLength,
		sendOnSignUp:    true,
		signUpRole:      RoleMember,
		logger:          defLogger{},
		tokenService:    tokenService,
		activitySink:    noopActivitySink{},
	}
}

func (s *SignOn) WithLogger(logger Logger) *SignOn {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithDispatcher enables the send-on-sign-up verification code flow.
func (s *SignOn) WithDispatcher(dispatcher *Dispatcher) *SignOn {
	s.dispatcher = dispatcher
	return s
}

// WithIdentityProvider swaps the default users-repository-backed provider.
func (s *SignOn) WithIdentityProvider(provider IdentityProvider) *SignOn {
	if provider != nil {
		s.provider = provider
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *SignOn) WithActivitySink(sink ActivitySink) *SignOn {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *SignOn) WithTokenValidator(validator TokenValidator) *SignOn {
	s.tokenValidator = validator
	return s
}

// WithOTPLength overrides the generated code length.
func (s *SignOn) WithOTPLength(length int) *SignOn {
	if length > 0 {
		s.otpLength = length
	}
	return s
}

// WithSendOnSignUp toggles verification code dispatch after account
// creation. Standalone code requests stay unsupported either way.
func (s *SignOn) WithSendOnSignUp(enabled bool) *SignOn {
	s.sendOnSignUp = enabled
	return s
}

// WithDeterministicIDs derives user ids from the email address.
func (s *SignOn) WithDeterministicIDs(enabled bool) *SignOn {
	s.useHashid = enabled
	return s
}

// TokenService returns the TokenService instance used by this service
func (s *SignOn) TokenService() TokenService {
	return s.tokenService
}

// SignIn verifies the credentials and returns a session token. Repeated
// calls with the same bad input yield the same error and no state change.
func (s *SignOn) SignIn(ctx context.Context, email, password string) (string, error) {
	var err error
	var identity Identity

	if identity, err = s.provider.VerifyIdentity(ctx, email, password); err != nil {
		s.logger.Error("SignIn verify identity error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventSignInFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("SignIn identity is nil or zero value")
		s.emitAuthEvent(ctx, ActivityEventSignInFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": email,
			"error": ErrIdentityNotFound.Error(),
		})
		return "", ErrIdentityNotFound
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventSignInFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventSignInSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"email": email,
	})

	return token, nil
}

// SignUp validates the proposed username, creates the account, dispatches
// the verification code when enabled, and auto-logs the new account in.
// Username validation failures return before any side effect.
func (s *SignOn) SignUp(ctx context.Context, email, password, username string) (string, error) {
	sanitized, err := ValidateUsername(username)
	if err != nil {
		return "", err
	}

	var created *User

	handler := &SignUpHandler{repo: s.repo}
	msg := SignUpMessage{
		Email:     email,
		Username:  sanitized,
		Password:  password,
		Role:      s.signUpRole,
		UseHashid: s.useHashid,
		OnCreated: func(u *User) {
			created = u
		},
	}

	if err := handler.Execute(ctx, msg); err != nil {
		s.logger.Error("SignUp create account error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventSignUpFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return "", err
	}

	if created == nil {
		return "", ErrIdentityNotFound
	}

	s.dispatchVerification(ctx, created)

	identity := identityFromUser(created)

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.emitAuthEvent(ctx, ActivityEventSignUpFailure, s.actorFromIdentity(identity), identity.ID(), map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventSignUpSuccess, s.actorFromIdentity(identity), identity.ID(), map[string]any{
		"email":    email,
		"username": sanitized,
	})

	return token, nil
}

// dispatchVerification runs the send-on-sign-up hook once per successful
// creation. Delivery failure never unwinds the account: the address is
// registered, only the proof email is missing.
func (s *SignOn) dispatchVerification(ctx context.Context, user *User) {
	if !s.sendOnSignUp || s.dispatcher == nil {
		return
	}

	code, err := GenerateOTP(s.otpLength)
	if err != nil {
		s.logger.Error("SignUp failed to generate verification code", "error", err)
		return
	}

	if _, err := s.dispatcher.Dispatch(ctx, user.Email, code); err != nil {
		s.logger.Error("SignUp verification dispatch failed", "email", user.Email, "error", err)
	}
}

// IdentityFromSession resolves the account behind a session.
func (s *SignOn) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	user, err := s.repo.Users().GetByID(ctx, session.GetUserID())
	if err != nil {
		s.logger.Error("IdentityFromSession get user by id: %s", err)
		return nil, err
	}

	return identityFromUser(user), nil
}

func (s SignOn) SessionFromToken(raw string) (Session, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

func (s *SignOn) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *SignOn) actorFromIdentity(identity Identity) ActorRef {
	if identity == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   identity.ID(),
		Type: "user",
	}
}
