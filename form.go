package signon

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// FormMode selects which intent a submission carries.
type FormMode string

const (
	// ModeSignIn authenticates an existing account
	ModeSignIn FormMode = "sign-in"
	// ModeSignUp creates a new account
	ModeSignUp FormMode = "sign-up"
)

// genericErrorMessage is shown when a failure carries no usable message.
const genericErrorMessage = "Something went wrong"

// FormState is the observable state of the sign-on form. It is never
// persisted; a controller owns exactly one.
type FormState struct {
	Mode          FormMode
	Email         string
	Username      string
	Password      string
	Error         string
	UsernameError string
	Submitting    bool
}

// FormController drives the sign-in / create-account form against an
// Authenticator. It is a presentation state machine: mode toggle, field
// values, one error region per submission, and a busy flag.
//
// The controller follows a single-threaded cooperative model: the busy
// flag is the only guard against duplicate submission and there is no
// cancellation once a submit is in flight. It is not safe for use from
// multiple goroutines.
type FormController struct {
	auth      Authenticator
	state     FormState
	token     string
	onSuccess func()
	logger    Logger
}

// NewFormController creates a controller in sign-in mode.
func NewFormController(auth Authenticator) *FormController {
	return &FormController{
		auth:   auth,
		state:  FormState{Mode: ModeSignIn},
		logger: defLogger{},
	}
}

// WithOnSuccess registers the completion handler. It is invoked at most
// once per successful submission; absent handlers are a no-op.
func (f *FormController) WithOnSuccess(fn func()) *FormController {
	f.onSuccess = fn
	return f
}

func (f *FormController) WithLogger(l Logger) *FormController {
	if l != nil {
		f.logger = l
	}
	return f
}

// State returns a copy of the current form state.
func (f *FormController) State() FormState {
	return f.state
}

// Token returns the session token from the last successful submission.
func (f *FormController) Token() string {
	return f.token
}

func (f *FormController) SetEmail(v string)    { f.state.Email = v }
func (f *FormController) SetUsername(v string) { f.state.Username = v }
func (f *FormController) SetPassword(v string) { f.state.Password = v }

// ToggleMode flips between sign-in and sign-up. Both error regions are
// cleared; email is preserved across modes, username and password are not.
func (f *FormController) ToggleMode() {
	if f.state.Mode == ModeSignIn {
		f.state.Mode = ModeSignUp
	} else {
		f.state.Mode = ModeSignIn
	}

	f.state.Error = ""
	f.state.UsernameError = ""
	f.state.Username = ""
	f.state.Password = ""
}

// Submit runs the current mode's flow. Re-entry while a submission is in
// flight is ignored. The busy flag is cleared on every exit path,
// including panics out of the authenticator, which surface as a generic
// error message.
func (f *FormController) Submit(ctx context.Context) (err error) {
	if f.state.Submitting {
		return nil
	}

	f.state.Error = ""
	f.state.UsernameError = ""
	f.state.Submitting = true

	defer func() {
		f.state.Submitting = false

		if r := recover(); r != nil {
			f.logger.Error("form submission panic", "recovered", r)
			err = NewUnexpectedError(fmt.Errorf("%v", r))
			f.state.Error = genericErrorMessage
		}
	}()

	switch f.state.Mode {
	case ModeSignUp:
		return f.submitSignUp(ctx)
	default:
		return f.submitSignIn(ctx)
	}
}

func (f *FormController) submitSignIn(ctx context.Context) error {
	token, err := f.auth.SignIn(ctx, f.state.Email, f.state.Password)
	if err != nil {
		f.state.Error = displayMessage(err)
		return err
	}

	f.complete(token)
	return nil
}

func (f *FormController) submitSignUp(ctx context.Context) error {
	// Validate locally first: syntax failures never reach the network.
	sanitized, err := ValidateUsername(f.state.Username)
	if err != nil {
		f.state.UsernameError = displayMessage(err)
		return err
	}

	token, err := f.auth.SignUp(ctx, f.state.Email, f.state.Password, sanitized)
	if err != nil {
		f.state.Error = displayMessage(err)
		return err
	}

	f.complete(token)
	return nil
}

func (f *FormController) complete(token string) {
	f.token = token

	if f.onSuccess != nil {
		f.onSuccess()
	}
}

// displayMessage converts an error into the single display-ready message
// shown in the form, falling back to a generic message.
func displayMessage(err error) string {
	if err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}

	if msg := err.Error(); msg != "" {
		return msg
	}

	return genericErrorMessage
}
