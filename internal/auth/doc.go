// Package auth provides the authentication strategies of the application.
//
// Two strategies implement the common Strategy contract:
//   - LocalProvider: username/password authentication against the local
//     database with Argon2id password hashing.
//   - OpenIDProvider: claims based login for identities asserted by an
//     external OpenID Connect provider such as Google, Okta, Keycloak or
//     Azure AD.
//
// # Claims based login
//
// The OpenID Connect flow is split in two. OIDCClient is the relying
// party: it builds the authorization URL, exchanges the callback code and
// verifies the ID token's signature, issuer and expiry using
// github.com/coreos/go-oidc. OpenIDProvider then consumes the validated
// claims and makes the actual login decision:
//
//  1. the claims must include the configured name, email and user claims
//     (plus the groups claim when group checking is on),
//  2. with group checking on, membership in the user or admin group decides
//     admission, and admin group membership decides administrator status on
//     every login,
//  3. the matching user record is looked up by username and the OIDC auth
//     method, provisioned on first login when signup is enabled, and
//     updated when the stored admin flag disagrees with the groups.
//
// Every failure is a refusal: callers receive a nil Credential and one of
// the package's sentinel errors, all of which must be treated alike. The
// reason only appears in the diagnostic logs, and the bearer token is never
// logged.
//
// # Credentials
//
// Successful authentication yields a Credential: a signed bearer token with
// its time to live, created by the token subpackage. The fiber middleware
// in this package (RequireUser, RequireAdmin) validates these tokens on
// protected routes.
//
// Example usage:
//
//	tokens, _ := token.NewIssuer(token.Config{Secret: secret})
//	provider := auth.NewOpenIDProvider(db, tokens, auth.OIDCOptions{
//		UserClaim: "email",
//		NameClaim: "name",
//	})
//
//	cred, err := provider.Authenticate(claims)
//	if err != nil {
//		// refused; reason is in the logs
//	}
package auth
