package signon

import (
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// SessionContextKey is the router context local under which the session
// guard stores the decoded Session.
const SessionContextKey = "signon_session"

// ClaimsContextKey is the router context local under which the session
// guard stores the decoded AuthClaims.
const ClaimsContextKey = "user"

type RouteAuthenticator struct {
	auth                   Authenticator
	cfg                    Config
	validator              TokenValidator
	cookieDuration         time.Duration
	extendedCookieDuration time.Duration
	Logger                 Logger
	AuthErrorHandler       func(c router.Context, err error) error
	ErrorHandler           func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	extendedCookieDuration := cookieDuration
	if cfg.GetExtendedTokenDuration() > 0 {
		extendedCookieDuration = time.Duration(cfg.GetExtendedTokenDuration()) * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:                    cfg,
		auth:                   auther,
		Logger:                 defLogger{},
		cookieDuration:         cookieDuration,
		extendedCookieDuration: extendedCookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithTokenValidator(v TokenValidator) *RouteAuthenticator {
	a.validator = v
	return a
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

func (a RouteAuthenticator) GetExtendedCookieDuration() time.Duration {
	return a.extendedCookieDuration
}

// ProtectedRoute guards a route behind a valid session token. The token
// is looked up per cfg.GetTokenLookup, validated, and the resulting
// Session stored under SessionContextKey for downstream handlers. When a
// token validator is configured the decoded claims are stored too, under
// ClaimsContextKey and in the request context, so handlers can use
// GetRouterClaims, GetClaims and the role helpers.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			token := lookupToken(c, cfg)
			if token == "" {
				return errorHandler(c, errors.New(
					"missing authentication token",
					errors.CategoryAuth,
				).WithCode(errors.CodeUnauthorized))
			}

			session, err := a.auth.SessionFromToken(token)
			if err != nil {
				return errorHandler(c, err)
			}

			c.Locals(SessionContextKey, session)

			if a.validator != nil {
				if claims, err := a.validator.Validate(token); err == nil {
					c.Locals(ClaimsContextKey, claims)
					c.SetContext(WithClaimsContext(c.Context(), claims))
				}
			}

			return hf(c)
		}
	}
}

// lookupToken walks the configured lookup sources, e.g.
// "cookie:auth_session,header:Authorization", returning the first hit.
// Header lookups strip the configured auth scheme prefix.
func lookupToken(c router.Context, cfg Config) string {
	lookup := cfg.GetTokenLookup()
	if lookup == "" {
		lookup = "cookie:" + cfg.GetContextKey()
	}

	for _, source := range strings.Split(lookup, ",") {
		kind, name, ok := strings.Cut(strings.TrimSpace(source), ":")
		if !ok {
			continue
		}

		var val string
		switch kind {
		case "cookie":
			val = c.Cookies(name)
		case "header":
			val = c.Header(name)
			if scheme := cfg.GetAuthScheme(); scheme != "" {
				val = strings.TrimSpace(strings.TrimPrefix(val, scheme))
			}
		case "query":
			val = c.Query(name)
		}

		if val != "" {
			return val
		}
	}

	return ""
}

func (a *RouteAuthenticator) SignIn(ctx router.Context, payload SubmitPayload) error {
	token, err := a.auth.SignIn(ctx.Context(), payload.GetEmail(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Sign in error", "error", err)
		return err
	}

	duration := a.cookieDuration
	if payload.GetExtendedSession() {
		duration = a.extendedCookieDuration
	}

	a.setCookieToken(ctx, token, duration)
	return nil
}

// SignUp creates the account and sets the session cookie so the new
// account lands already signed in.
func (a *RouteAuthenticator) SignUp(ctx router.Context, payload SubmitPayload, username string) error {
	token, err := a.auth.SignUp(ctx.Context(), payload.GetEmail(), payload.GetPassword(), username)
	if err != nil {
		a.Logger.Error("Sign up error", "error", err)
		return err
	}

	duration := a.cookieDuration
	if payload.GetExtendedSession() {
		duration = a.extendedCookieDuration
	}

	a.setCookieToken(ctx, token, duration)
	return nil
}

func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetContextKey())
}

func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) GetRedirect(ctx router.Context, def ...string) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	r := ctx.Cookies(rejectedRoute)
	if r == "" {
		return def[0]
	}
	a.cookieDel(ctx, rejectedRoute)
	return r
}

func (a *RouteAuthenticator) GetRedirectOrDefault(ctx router.Context) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	refererHeader := string(ctx.Referer())

	r := ctx.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = a.cfg.GetRejectedRouteDefault()
	}
	a.cookieDel(ctx, rejectedRoute)
	return r
}

func (a *RouteAuthenticator) SetRedirect(ctx router.Context) {
	rejectedRoute := a.cfg.GetRejectedRouteKey()

	a.Logger.Info("Setting redirect cookie", "key", rejectedRoute, "path", ctx.OriginalURL())

	ctx.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error, redirecting to sign in",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	a.SetRedirect(c)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect("/sign-in", statusCode)
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.Status(richErr.Code).Render("errors/500", router.ViewContext{
			"error": richErr,
		})
	}
}
