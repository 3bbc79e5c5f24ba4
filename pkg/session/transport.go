package session

import "net/http"

// CredentialSource yields the credential to attach to an outbound request.
// *Manager satisfies it.
type CredentialSource interface {
	Credential() string
}

// Transport is an http.RoundTripper that attaches the current credential
// as a bearer token. The credential is read from the source per request,
// not captured at construction, so transitions into "unauthenticated"
// take effect on the very next call.
type Transport struct {
	Source CredentialSource
	// Base is the underlying round tripper. http.DefaultTransport when nil.
	Base http.RoundTripper
}

// NewTransport creates a credential-injecting transport over the default one.
func NewTransport(source CredentialSource) *Transport {
	return &Transport{Source: source}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if credential := t.Source.Credential(); credential != "" {
		// Per RoundTripper contract the request must not be mutated.
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
