package auth

import "time"

// Credential is the session artifact produced by every authentication
// strategy: an opaque bearer token and its time to live.
type Credential struct {
	Token     string
	ExpiresIn time.Duration
}

// Strategy is the contract shared by all authentication strategies. Each
// strategy consumes its own kind of login data and either issues a
// Credential or refuses. Callers must treat every returned error as a
// uniform refusal; the distinction between refusal reasons only exists in
// the diagnostic logs.
type Strategy[T any] interface {
	Authenticate(data T) (*Credential, error)
}

var (
	_ Strategy[Claims]        = (*OpenIDProvider)(nil)
	_ Strategy[PasswordLogin] = (*LocalProvider)(nil)
)
