// Package signon implements an email/password sign-on workflow with
// one-time-passcode email verification.
//
// Workflow:
//   - SignOn.SignIn verifies credentials against the users repository and
//     issues a JWT session token.
//   - SignOn.SignUp validates the proposed username, creates the account
//     inside a transaction, dispatches a verification code email, and
//     auto-logs the new account in. Email verification is not required to
//     sign in; the code only proves control of the address.
//   - Dispatcher sends verification codes through a Mailer. Sends are
//     registration gated: a code is only ever emailed to an address that
//     already has an account, and a failed registration lookup refuses the
//     send. Standalone code-based sign-up is not supported.
//   - FormController is an embeddable state machine mirroring the sign-in /
//     create-account form: mode toggle, field values, a single error region
//     per submission, and a busy flag guarding duplicate submits.
//
// Delivery of verification emails is a single attempt by default; hosts can
// opt into retries via WithRetryAttempts. There is no sign-in throttling or
// lockout in this package. Deployments that need either should enforce them
// at the edge or wrap Users with a counting store.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing sign-in,
//     sign-up, dispatch, and verification events. Sinks run best-effort
//     (errors are logged) so you can forward to a database or queue without
//     blocking authentication.
package signon
