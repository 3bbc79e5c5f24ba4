package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrCredentialInvalid indicates a credential that cannot be trusted: it
// failed to decode, is missing required claims, or has expired. Callers
// never surface this to users; the session collapses to unauthenticated.
var ErrCredentialInvalid = errors.New("credential invalid")

// Claims is the fixed schema the client expects inside a credential.
// Tokens missing a subject or expiry fail decode outright.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	Roles     []string
}

// Expired reports whether the claims are expired at the given instant.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// tokenClaims is the wire shape of the credential payload.
type tokenClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// DecodeClaims extracts claims from an opaque credential string.
//
// The signature is not checked here: the remote authority is the sole
// verifier and rejects tampered tokens on every call. The client reads
// claims only to derive display state and request gating.
//
// Returns ErrCredentialInvalid when the token is malformed or does not
// match the expected schema. Expiry is NOT checked here; callers compare
// Claims.ExpiresAt against their own clock so that tests can inject time.
func DecodeClaims(credential string) (*Claims, error) {
	if credential == "" {
		return nil, ErrCredentialInvalid
	}

	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(credential, &tc); err != nil {
		return nil, errors.Join(ErrCredentialInvalid, err)
	}

	if tc.Subject == "" || tc.ExpiresAt == nil {
		return nil, ErrCredentialInvalid
	}

	return &Claims{
		Subject:   tc.Subject,
		ExpiresAt: tc.ExpiresAt.Time,
		Roles:     tc.Roles,
	}, nil
}
