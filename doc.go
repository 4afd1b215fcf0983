// Package main provides the entry point for the Larder server.
// It starts a web service built on the Fiber framework that handles
// user sign-in through local credentials or an external OpenID Connect
// identity provider, and manages the user accounts backing both. The
// application uses gorm for data persistence.
package main
