package login

import "errors"

var (
	// ErrInvalidFormData is returned when the login form cannot be parsed or validated.
	ErrInvalidFormData = errors.New("invalid form data")

	// ErrLocalAuthDisabled is returned when password login is disabled in the configuration.
	ErrLocalAuthDisabled = errors.New("password login is disabled")

	// ErrInvalidCredentials is returned when the username or password is wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
