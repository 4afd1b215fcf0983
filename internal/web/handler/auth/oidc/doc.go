// Package oidc wires the OpenID Connect login flow into the web service.
//
// It registers three routes when OIDC is enabled: one to start the flow by
// redirecting to the identity provider, the callback that exchanges the
// authorization code and signs the user in from the verified ID token
// claims, and a logout route that clears the session cookie and, when the
// provider supports it, redirects to the provider's end session endpoint.
//
// State tokens protect the callback against CSRF. They are kept in memory
// with a short expiry and swept by a background goroutine.
package oidc
