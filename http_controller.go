package signon

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

func GetRouterSession(c router.Context, key string) (*SessionObject, error) {
	cookie := c.Locals(key)
	if cookie == nil {
		return nil, ErrUnableToFindSession
	}

	user, ok := cookie.(*jwt.Token)
	if user == nil || !ok {
		return nil, ErrUnableToDecodeSession
	}

	claims, ok := user.Claims.(jwt.MapClaims)
	if claims == nil || !ok {
		return nil, ErrUnableToMapClaims
	}

	return sessionFromClaims(claims)
}

func RegisterSignOnRoutes[T any](app router.Router[T], opts ...SignOnControllerOption) {

	controller := NewSignOnController(opts...)

	app.
		Get(controller.Routes.SignIn,
			controller.SignInShow,
		).
		SetName("sign-in.get")

	app.
		Post(
			controller.Routes.SignIn,
			controller.SignInPost,
		).
		SetName("sign-in.post")

	app.Get(controller.Routes.SignUp, controller.SignUpShow).
		SetName("sign-up.get")
	app.Post(controller.Routes.SignUp, controller.SignUpPost).
		SetName("sign-up.post")

	app.Get(controller.Routes.SignOut, controller.SignOut).SetName("sign-out.get")

	app.Get(controller.Routes.Verify, controller.VerifyShow).
		SetName("verify.get")
	app.Post(controller.Routes.Verify, controller.VerifyPost).
		SetName("verify.post")
}

type SignOnControllerRoutes struct {
	SignIn  string
	SignUp  string
	SignOut string
	Verify  string
}

type SignOnControllerViews struct {
	// SignOn renders both modes; the "mode" view key selects which
	// fields the template shows.
	SignOn string
	Verify string
}

type SignOnController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *SignOnControllerRoutes
	Views        *SignOnControllerViews
	Auther       HTTPAuthenticator
	ErrorHandler router.ErrorHandler
}

type SignOnControllerOption func(*SignOnController) *SignOnController

func NewSignOnController(opts ...SignOnControllerOption) *SignOnController {
	c := &SignOnController{
		Logger:       defLogger{},
		ErrorHandler: defaultControllerErrHandler,
		Routes: &SignOnControllerRoutes{
			SignIn:  "/sign-in",
			SignUp:  "/sign-up",
			SignOut: "/sign-out",
			Verify:  "/verify",
		},
		Views: &SignOnControllerViews{
			SignOn: "sign_on",
			Verify: "verify",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in sign-on controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in sign-on controller...")
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) SignOnControllerOption {
	return func(c *SignOnController) *SignOnController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) SignOnControllerOption {
	return func(c *SignOnController) *SignOnController {
		c.Auther = auther
		return c
	}
}

func WithControllerLogger(logger Logger) SignOnControllerOption {
	return func(c *SignOnController) *SignOnController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func (a *SignOnController) SignInShow(ctx router.Context) error {
	return ctx.Render(a.Views.SignOn, router.ViewContext{
		"mode":   string(ModeSignIn),
		"errors": nil,
		"record": nil,
	})
}

// SignInRequest payload
type SignInRequest struct {
	Email      string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetEmail returns the account email
func (r SignInRequest) GetEmail() string {
	return r.Email
}

// GetPassword will return the password
func (r SignInRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession reports whether the session cookie should outlive
// the default duration
func (r SignInRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *SignOnController) SignInPost(ctx router.Context) error {
	payload := new(SignInRequest)
	errors := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign in parse payload", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.SignOn, router.ViewContext{
			"mode":       string(ModeSignIn),
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		a.Logger.Debug("sign in payload", "payload", print.MaybePrettyJSON(payload))
	}

	if err := a.Auther.SignIn(ctx, payload); err != nil {
		errors["authentication"] = displayMessage(err)
		return ctx.Render(a.Views.SignOn, router.ViewContext{
			"mode":   string(ModeSignIn),
			"errors": errors,
			"record": payload,
		})
	}

	redirect := a.Auther.GetRedirect(ctx, "/")

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *SignOnController) SignUpShow(ctx router.Context) error {
	return ctx.Render(a.Views.SignOn, router.ViewContext{
		"mode":   string(ModeSignUp),
		"errors": map[string]string{},
		"record": SignUpRequest{},
	})
}

// SignUpRequest is the create account form payload
type SignUpRequest struct {
	Username   string `form:"username" json:"username"`
	Email      string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

func (r SignUpRequest) GetEmail() string {
	return r.Email
}

func (r SignUpRequest) GetPassword() string {
	return r.Password
}

func (r SignUpRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will validate the payload. Username syntax has its own rules
// in ValidateUsername so the form can scope the message to that field.
func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
	)
}

func (a *SignOnController) SignUpPost(ctx router.Context) error {
	payload := new(SignUpRequest)
	errors := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		errors["form"] = "Failed to parse form"
		a.Logger.Error("sign up parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.SignOn, router.ViewContext{
			"mode":   string(ModeSignUp),
			"errors": errors,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("sign up validate payload", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.SignOn, router.ViewContext{
			"mode":       string(ModeSignUp),
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	// Username failures render before any account or email work happens
	username, err := ValidateUsername(payload.Username)
	if err != nil {
		errors["username"] = displayMessage(err)
		return ctx.Render(a.Views.SignOn, router.ViewContext{
			"mode":   string(ModeSignUp),
			"errors": errors,
			"record": payload,
		})
	}

	if err := a.Auther.SignUp(ctx, payload, username); err != nil {
		a.Logger.Error("sign up error", "error", err)

		errors["authentication"] = displayMessage(err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error creating account",
		}).Render(a.Views.SignOn, router.ViewContext{
			"mode":   string(ModeSignUp),
			"errors": errors,
			"record": payload,
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Account created, check your email for a verification code",
	}).Redirect(a.Auther.GetRedirect(ctx, "/"), fiber.StatusSeeOther)
}

func (a *SignOnController) SignOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.Redirect("/", router.StatusTemporaryRedirect)
}

func (a *SignOnController) VerifyShow(ctx router.Context) error {
	return ctx.Render(a.Views.Verify, router.ViewContext{
		"errors": nil,
		"record": VerifyRequest{Email: ctx.Query("email")},
	})
}

// VerifyRequest carries the emailed code back to the server
type VerifyRequest struct {
	Email string `form:"email" json:"email"`
	Code  string `form:"code" json:"code"`
}

// Validate will validate the payload
func (r VerifyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required, validation.Length(4, 12), is.Digit),
	)
}

func (a *SignOnController) VerifyPost(ctx router.Context) error {
	errors := map[string]string{}
	payload := new(VerifyRequest)

	if err := ctx.Bind(payload); err != nil {
		errors["form"] = "Failed to parse form"
		a.Logger.Error("verify parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Verify, router.ViewContext{
			"errors": errors,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("verify validate payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Verify, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var res *VerifyEmailResponse

	req := VerifyEmailMessage{
		Email: payload.Email,
		Code:  payload.Code,
		OnResponse: func(resp *VerifyEmailResponse) {
			res = resp
		},
	}

	verifyEmail := VerifyEmailHandler{repo: a.Repo}

	if err := verifyEmail.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("verify email error", "error", err)
		errors["verification"] = displayMessage(err)
		return ctx.Render(a.Views.Verify, router.ViewContext{
			"errors": errors,
			"record": payload,
		})
	}

	if a.Debug {
		a.Logger.Debug("verify email response", "response", print.MaybePrettyJSON(res))
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Email verified",
	}).Redirect("/", fiber.StatusSeeOther)
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map for templates.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["form"] = err.Error()
	return out
}

func defaultControllerErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
