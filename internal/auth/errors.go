package auth

import "errors"

var (
	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	// This typically indicates a misconfigured OIDC provider or an incomplete authentication flow.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrOIDCDisabled is returned when OIDC is disabled via configuration.
	ErrOIDCDisabled = errors.New("oidc authentication is disabled")

	// ErrInsufficientClaims is returned when the identity claims are empty or
	// miss a required claim.
	ErrInsufficientClaims = errors.New("required identity claims not present")

	// ErrGroupMembership is returned when group based access control is on and
	// the user belongs to neither the user group nor the admin group.
	ErrGroupMembership = errors.New("user does not have required group membership")

	// ErrSignupDisabled is returned when no matching user exists and new user
	// creation is disabled.
	ErrSignupDisabled = errors.New("user not found and signup is disabled")

	// ErrProvisioningFailed is returned when the user record could not be
	// created or updated. The underlying database error is logged, not exposed.
	ErrProvisioningFailed = errors.New("failed to provision user")

	// ErrTokenIssuance is returned when the access token could not be created.
	ErrTokenIssuance = errors.New("failed to issue access token")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAccountUnusable is returned when attempting password authentication
	// against an account that has no usable password.
	ErrUserAccountUnusable = errors.New("user account has no usable password")
)
