// Package session owns the client-side authentication session: the opaque
// credential, the claims decoded from it, and the authority-confirmed
// elevation flag. All mutating flows in the application consult this
// package's snapshot before acting, and every outbound call is stamped
// with the current credential by Transport.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Snapshot is an immutable view of the session at one instant.
//
// Elevated is only ever true while Authenticated is true. Elevation is not
// carried in the credential's claims; it is confirmed separately by the
// remote authority and defaults to false until that confirmation lands.
type Snapshot struct {
	Credential    string
	Claims        *Claims
	Authenticated bool
	Elevated      bool
}

// Authority is the subset of the remote service the session manager needs.
// *catalog.Client satisfies it.
type Authority interface {
	// Login exchanges an identifier and secret for a credential.
	Login(ctx context.Context, identifier, secret string) (string, error)
	// ElevationStatus reports whether the current credential's holder has
	// administrative privilege. Requires the credential to be attached.
	ElevationStatus(ctx context.Context) (bool, error)
}

// Config contains options for the Manager.
type Config struct {
	Store  CredentialStore
	Logger *slog.Logger
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Manager is the single authoritative representation of "who is acting".
// Hydrate, Login and Logout are the only state transitions and are
// serialized; observers see each transition through Subscribe or Snapshot.
type Manager struct {
	store  CredentialStore
	logger *slog.Logger
	now    func() time.Time

	// txMu serializes Hydrate, Login and Logout end to end: the store
	// write and the state write of one transition land together before the
	// next transition starts.
	txMu sync.Mutex

	mu        sync.Mutex
	authority Authority
	state     Snapshot
	gen       uint64
	resolved  chan struct{}
	subs      []chan Snapshot
}

// NewManager creates a session manager over the given credential store.
// Call SetAuthority before Hydrate or Login; the two-phase wiring exists
// because the HTTP client that implements Authority reads its credential
// back out of this manager.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	// An unauthenticated session has, by definition, settled elevation.
	resolved := make(chan struct{})
	close(resolved)

	return &Manager{
		store:    cfg.Store,
		logger:   logger,
		now:      now,
		resolved: resolved,
	}
}

// SetAuthority binds the remote authority used for login and elevation checks.
func (m *Manager) SetAuthority(a Authority) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authority = a
}

// Hydrate restores the session from the credential store. Run once at startup.
//
// A credential that fails to decode or has already expired is purged together
// with all derived state; both cases mean the credential cannot be trusted and
// neither surfaces as an error. Hydrate is idempotent: after a purge, a second
// call finds an empty store and leaves the session untouched.
func (m *Manager) Hydrate(ctx context.Context) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	credential, err := m.store.Load()
	if err != nil {
		return err
	}
	if credential == "" {
		return nil
	}

	claims, err := DecodeClaims(credential)
	if err != nil || claims.Expired(m.now()) {
		m.logger.Debug("purging untrusted stored credential")
		if err := m.store.Clear(); err != nil {
			return err
		}
		m.mu.Lock()
		m.clearLocked()
		m.mu.Unlock()
		return nil
	}

	m.install(ctx, credential, claims)
	return nil
}

// Login authenticates against the remote authority. On success the returned
// credential is persisted, decoded and installed exactly as in Hydrate's
// success path, and elevation resolution starts. On failure the session is
// left unauthenticated and the error carries the authority's message.
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	// The whole exchange runs under the transition lock: a concurrent
	// Logout must not slot between the credential being persisted and
	// installed.
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	authority := m.authority
	m.mu.Unlock()
	if authority == nil {
		return errors.New("no authority configured")
	}

	credential, err := authority.Login(ctx, identifier, secret)
	if err != nil {
		return err
	}

	claims, err := DecodeClaims(credential)
	if err != nil || claims.Expired(m.now()) {
		// The authority handed us a credential we cannot trust. Do not
		// install or persist it.
		return ErrCredentialInvalid
	}

	if err := m.store.Save(credential); err != nil {
		return err
	}

	m.install(ctx, credential, claims)
	return nil
}

// Logout purges the stored credential and clears all session state. It
// cannot fail: a store error is logged and the in-process state is cleared
// regardless, so no caller ever observes a half-logged-out session.
func (m *Manager) Logout() {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear stored credential", "error", err)
	}

	m.mu.Lock()
	m.clearLocked()
	m.mu.Unlock()
}

// install makes the decoded credential the active session and kicks off
// asynchronous elevation resolution for it.
func (m *Manager) install(ctx context.Context, credential string, claims *Claims) {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.state = Snapshot{
		Credential:    credential,
		Claims:        claims,
		Authenticated: true,
		Elevated:      false,
	}
	resolved := make(chan struct{})
	m.resolved = resolved
	authority := m.authority
	m.notifyLocked()
	m.mu.Unlock()

	go m.resolveElevation(ctx, authority, gen, resolved)
}

// resolveElevation asks the authority whether the session is elevated and
// applies the answer only if the session has not transitioned since the
// query started. A failed query is a silent fallback to non-elevated.
func (m *Manager) resolveElevation(ctx context.Context, authority Authority, gen uint64, resolved chan struct{}) {
	defer close(resolved)

	if authority == nil {
		return
	}

	elevated, err := authority.ElevationStatus(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen {
		// The session logged out or re-authenticated while the query was
		// in flight; the answer belongs to a credential that no longer
		// exists and must be discarded.
		m.logger.Debug("discarding stale elevation result", "generation", gen)
		return
	}
	if err != nil {
		m.logger.Debug("elevation status unavailable, defaulting to non-elevated", "error", err)
		return
	}

	m.state.Elevated = elevated && m.state.Authenticated
	m.notifyLocked()
}

// clearLocked resets the session to unauthenticated. Caller holds m.mu.
func (m *Manager) clearLocked() {
	m.gen++
	m.state = Snapshot{}
	resolved := make(chan struct{})
	close(resolved)
	m.resolved = resolved
	m.notifyLocked()
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Credential returns the current credential, or "" when unauthenticated.
// Transport calls this at request time so a purge mid-flight can never
// result in a stale credential being attached to a later request.
func (m *Manager) Credential() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Credential
}

// ElevationResolved returns a channel that is closed once the current
// session's elevation query has settled. For an unauthenticated session
// the channel is already closed.
func (m *Manager) ElevationResolved() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolved
}

// Subscribe registers an observer of session transitions. Notifications are
// best-effort: a slow receiver misses intermediate snapshots but can always
// call Snapshot for the latest state.
func (m *Manager) Subscribe() <-chan Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan Snapshot, 8)
	m.subs = append(m.subs, ch)
	return ch
}

// notifyLocked fans the current snapshot out to subscribers. Caller holds m.mu.
func (m *Manager) notifyLocked() {
	for _, ch := range m.subs {
		select {
		case ch <- m.state:
		default:
		}
	}
}
