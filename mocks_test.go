package signon_test

import (
	"context"
	"database/sql"
	"io"
	"mime/multipart"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-signon"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// testConfig is a plain Config used where we do not care about call counts
type testConfig struct {
	signingKey      string
	tokenExpiration int
	issuer          string
	audience        []string
}

func newMockConfig() testConfig {
	return testConfig{
		signingKey:      "test-signing-key-which-is-long-enough",
		tokenExpiration: 1,
		issuer:          "signon-test",
		audience:        []string{"test"},
	}
}

func (c testConfig) GetSigningKey() string          { return c.signingKey }
func (c testConfig) GetSigningMethod() string       { return "HS256" }
func (c testConfig) GetContextKey() string          { return "signon_token" }
func (c testConfig) GetTokenExpiration() int        { return c.tokenExpiration }
func (c testConfig) GetExtendedTokenDuration() int  { return 0 }
func (c testConfig) GetTokenLookup() string         { return "cookie:signon_token" }
func (c testConfig) GetAuthScheme() string          { return "Bearer" }
func (c testConfig) GetIssuer() string              { return c.issuer }
func (c testConfig) GetAudience() []string          { return c.audience }
func (c testConfig) GetRejectedRouteKey() string    { return "rejected_route" }
func (c testConfig) GetRejectedRouteDefault() string { return "/sign-in" }

// MockConfig implements signon.Config for call-count sensitive tests
type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetSigningMethod() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetContextKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetTokenExpiration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetExtendedTokenDuration() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockConfig) GetTokenLookup() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAuthScheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetIssuer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetAudience() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockConfig) GetRejectedRouteKey() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConfig) GetRejectedRouteDefault() string {
	args := m.Called()
	return args.String(0)
}

// TestIdentity implements signon.Identity
type TestIdentity struct {
	id       string
	username string
	email    string
	role     string
}

func (i TestIdentity) ID() string       { return i.id }
func (i TestIdentity) Username() string { return i.username }
func (i TestIdentity) Email() string    { return i.email }
func (i TestIdentity) Role() string     { return i.role }

// MockAuthenticator implements signon.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) SignIn(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) SignUp(ctx context.Context, email, password, username string) (string, error) {
	args := m.Called(ctx, email, password, username)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) SessionFromToken(token string) (signon.Session, error) {
	args := m.Called(token)
	return args.Get(0).(signon.Session), args.Error(1)
}

func (m *MockAuthenticator) IdentityFromSession(ctx context.Context, session signon.Session) (signon.Identity, error) {
	args := m.Called(ctx, session)
	return args.Get(0).(signon.Identity), args.Error(1)
}

// MockHTTPAuthenticator implements signon.HTTPAuthenticator
type MockHTTPAuthenticator struct {
	mock.Mock
}

func (m *MockHTTPAuthenticator) SignIn(c router.Context, payload signon.SubmitPayload) error {
	args := m.Called(c, payload)
	return args.Error(0)
}

func (m *MockHTTPAuthenticator) SignUp(c router.Context, payload signon.SubmitPayload, username string) error {
	args := m.Called(c, payload, username)
	return args.Error(0)
}

func (m *MockHTTPAuthenticator) Logout(c router.Context) {
	m.Called(c)
}

func (m *MockHTTPAuthenticator) SetRedirect(c router.Context) {
	m.Called(c)
}

func (m *MockHTTPAuthenticator) GetRedirect(c router.Context, def ...string) string {
	args := m.Called(c, def)
	return args.String(0)
}

func (m *MockHTTPAuthenticator) GetRedirectOrDefault(c router.Context) string {
	args := m.Called(c)
	return args.String(0)
}

// MockTokenValidator implements signon.TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) Validate(tokenString string) (signon.AuthClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(signon.AuthClaims), args.Error(1)
}

// MockSubmitPayload implements signon.SubmitPayload
type MockSubmitPayload struct {
	Email           string
	Password        string
	ExtendedSession bool
}

func (m MockSubmitPayload) GetEmail() string {
	return m.Email
}

func (m MockSubmitPayload) GetPassword() string {
	return m.Password
}

func (m MockSubmitPayload) GetExtendedSession() bool {
	return m.ExtendedSession
}

// MockIdentityProvider implements signon.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, email, password string) (signon.Identity, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(signon.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByEmail(ctx context.Context, email string) (signon.Identity, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(signon.Identity), args.Error(1)
}

// MockActivitySink implements signon.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event signon.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockMailer implements signon.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg signon.Email) (signon.SendReceipt, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(signon.SendReceipt), args.Error(1)
}

// MockUsers mocks the methods under test; the embedded interface covers
// the rest of the repository surface.
type MockUsers struct {
	mock.Mock
	signon.Users
}

func (m *MockUsers) IsRegistered(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*signon.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signon.User), args.Error(1)
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*signon.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signon.User), args.Error(1)
}

func (m *MockUsers) Register(ctx context.Context, user *signon.User) (*signon.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signon.User), args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *signon.User) (*signon.User, error) {
	args := m.Called(ctx, tx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signon.User), args.Error(1)
}

func (m *MockUsers) TrackSignIn(ctx context.Context, user *signon.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) MarkEmailVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// MockVerificationCodes mocks the verification code store
type MockVerificationCodes struct {
	mock.Mock
	signon.VerificationCodes
}

func (m *MockVerificationCodes) Create(ctx context.Context, record *signon.VerificationCode, criteria ...repository.InsertCriteria) (*signon.VerificationCode, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signon.VerificationCode), args.Error(1)
}

func (m *MockVerificationCodes) GetPendingTx(ctx context.Context, tx bun.IDB, email string, purpose signon.VerificationPurpose) (*signon.VerificationCode, error) {
	args := m.Called(ctx, tx, email, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signon.VerificationCode), args.Error(1)
}

func (m *MockVerificationCodes) ConsumeTx(ctx context.Context, tx bun.IDB, code *signon.VerificationCode) (*signon.VerificationCode, error) {
	args := m.Called(ctx, tx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*signon.VerificationCode), args.Error(1)
}

// MockRepositoryManager implements signon.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

// RunInTx executes the callback with a zero transaction unless the
// expectation returns an error, which short-circuits like a failed begin.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	var tx bun.Tx
	return f(ctx, tx)
}

func (m *MockRepositoryManager) Users() signon.Users {
	args := m.Called()
	return args.Get(0).(signon.Users)
}

func (m *MockRepositoryManager) VerificationCodes() signon.VerificationCodes {
	args := m.Called()
	return args.Get(0).(signon.VerificationCodes)
}

// MockContext mocks the router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	return args.Get(0).([]string)
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	return args.Get(0).(map[string]any)
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	fh, _ := args.Get(0).(*multipart.FileHeader)
	return fh, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}
