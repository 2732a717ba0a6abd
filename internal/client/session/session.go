// Package session owns the client's authentication state. A Manager is the
// only writer of the credential store and of the in-memory user/token pair;
// everything else reads it through Snapshot and friends.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/carebook/internal/client/api"
	"github.com/atinyakov/carebook/internal/client/storage"
	"github.com/atinyakov/carebook/internal/models"
)

// Status is the authentication state of the process.
type Status int

const (
	Uninitialized Status = iota
	Hydrating
	Authenticated
	Anonymous
)

func (s Status) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Hydrating:
		return "hydrating"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// ErrBusy is returned when the same operation is submitted again while the
// previous submission is still in flight.
var ErrBusy = errors.New("session: operation already in progress")

// Authenticator is the slice of the remote API the Manager needs.
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials) (*models.AuthResponse, error)
	Register(ctx context.Context, reg api.Registration) (*models.AuthResponse, error)
	UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*models.User, error)
}

// Snapshot is a consistent copy of the session at one instant.
type Snapshot struct {
	Status Status
	User   *models.User
	Token  string
}

// Authenticated reports whether the snapshot holds a complete session.
func (s Snapshot) Authenticated() bool { return s.Status == Authenticated }

type operation string

const (
	opLogin    operation = "login"
	opRegister operation = "register"
	opProfile  operation = "update-profile"
)

// Manager is the session state machine.
type Manager struct {
	store storage.CredentialStore
	auth  Authenticator
	log   *zap.Logger

	mu     sync.RWMutex
	status Status
	user   *models.User
	token  string

	initOnce sync.Once
	initErr  error
	ready    chan struct{}

	opMu     sync.Mutex
	inflight map[operation]bool

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for state transitions.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// New returns an Uninitialized manager. auth may be attached later with
// SetAuthenticator when the API client itself depends on the manager.
func New(store storage.CredentialStore, auth Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		auth:     auth,
		log:      zap.NewNop(),
		ready:    make(chan struct{}),
		inflight: map[operation]bool{},
		subs:     map[int]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetAuthenticator attaches the remote API. It must be called before Login,
// Register or UpdateProfile.
func (m *Manager) SetAuthenticator(auth Authenticator) {
	m.mu.Lock()
	m.auth = auth
	m.mu.Unlock()
}

// Initialize hydrates the session from the store. Only the first call does
// any work; later calls wait for it and return its result. A store that
// cannot be read leaves the session Anonymous and the error is returned.
func (m *Manager) Initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.mu.Lock()
		m.status = Hydrating
		m.mu.Unlock()

		token, user, err := m.store.Load()

		m.mu.Lock()
		if err == nil && token != "" && user != nil {
			m.token, m.user, m.status = token, user, Authenticated
		} else {
			m.token, m.user, m.status = "", nil, Anonymous
		}
		status := m.status
		m.mu.Unlock()

		if err != nil {
			m.log.Warn("session hydration failed", zap.Error(err))
			m.initErr = err
		} else {
			m.log.Info("session hydrated", zap.Stringer("status", status))
		}
		close(m.ready)
		m.notify()
	})

	select {
	case <-m.ready:
		return m.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready is closed once hydration has finished. Before that every read
// reports an unauthenticated session.
func (m *Manager) Ready() <-chan struct{} { return m.ready }

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status != Authenticated {
		return Snapshot{Status: m.status}
	}
	u := *m.user
	return Snapshot{Status: m.status, User: &u, Token: m.token}
}

// Status returns the current state name.
func (m *Manager) Status() Status { return m.Snapshot().Status }

// Authenticated reports whether a complete session is held.
func (m *Manager) Authenticated() bool { return m.Snapshot().Authenticated() }

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *models.User { return m.Snapshot().User }

// Token returns the credential to attach to outgoing requests, or "" when
// there is no session. It satisfies api.TokenSource.
func (m *Manager) Token() string { return m.Snapshot().Token }

// Subscribe registers fn to be called with the new state after every
// transition. The returned func removes the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) notify() {
	snap := m.Snapshot()
	m.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Login authenticates with email and password. On failure the session is
// left exactly as it was and an *api.AuthError (or *api.ValidationError) is
// returned.
func (m *Manager) Login(ctx context.Context, creds api.Credentials) error {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := api.Validate(creds); err != nil {
		return err
	}
	release, err := m.begin(opLogin)
	if err != nil {
		return err
	}
	defer release()

	resp, err := m.authenticator().Login(ctx, creds)
	if err != nil {
		m.log.Info("login failed", zap.String("email", creds.Email), zap.Error(err))
		return authFailure(err, api.ReasonInvalidCredentials)
	}
	return m.establish(resp)
}

// Register creates an account and signs in with it.
func (m *Manager) Register(ctx context.Context, reg api.Registration) error {
	reg.Email = strings.TrimSpace(reg.Email)
	if err := api.Validate(reg); err != nil {
		return err
	}
	release, err := m.begin(opRegister)
	if err != nil {
		return err
	}
	defer release()

	resp, err := m.authenticator().Register(ctx, reg)
	if err != nil {
		m.log.Info("registration failed", zap.String("email", reg.Email), zap.Error(err))
		return authFailure(err, api.ReasonRejected)
	}
	return m.establish(resp)
}

// UpdateProfile saves profile changes for the signed-in user. Empty fields
// keep their current value. The password, when given, is sent to the server
// and never kept locally; the token is left untouched.
func (m *Manager) UpdateProfile(ctx context.Context, upd api.ProfileUpdate) error {
	snap := m.Snapshot()
	if !snap.Authenticated() {
		return &api.AuthError{Reason: api.ReasonNotAuthenticated, Message: "please log in to update your profile"}
	}
	if upd.Password != "" && upd.Password != upd.ConfirmPassword {
		return &api.ValidationError{Field: "confirmPassword", Message: "passwords do not match"}
	}
	upd = mergeProfile(upd, *snap.User)
	if err := api.Validate(upd); err != nil {
		return err
	}

	release, err := m.begin(opProfile)
	if err != nil {
		return err
	}
	defer release()

	updated, err := m.authenticator().UpdateProfile(ctx, upd)
	if err != nil {
		m.log.Info("profile update failed", zap.Error(err))
		return authFailure(err, api.ReasonRejected)
	}

	m.mu.Lock()
	if m.status != Authenticated || m.token != snap.Token {
		// the session changed while the request was in flight
		m.mu.Unlock()
		return &api.AuthError{Reason: api.ReasonNotAuthenticated, Message: "session changed during profile update"}
	}
	user := *m.user
	user.Name = updated.Name
	user.Contact = updated.Contact
	user.Address = updated.Address
	user.Location = updated.Location
	if err := m.store.Save(m.token, user); err != nil {
		m.mu.Unlock()
		m.log.Error("persisting profile failed", zap.Error(err))
		return &api.AuthError{Reason: api.ReasonStorage, Err: err}
	}
	m.user = &user
	m.mu.Unlock()

	m.log.Info("profile updated", zap.String("user", user.ID))
	m.notify()
	return nil
}

// Logout forgets the session. The in-memory state always becomes
// Anonymous; a store that fails to clear is reported but does not stop the
// transition.
func (m *Manager) Logout() error {
	m.mu.Lock()
	err := m.store.Clear()
	m.token, m.user, m.status = "", nil, Anonymous
	m.mu.Unlock()

	if err != nil {
		m.log.Error("clearing credential store failed", zap.Error(err))
	} else {
		m.log.Info("logged out")
	}
	m.notify()
	return err
}

// establish persists and installs a fresh session from an auth response.
func (m *Manager) establish(resp *models.AuthResponse) error {
	if resp == nil || resp.Token == "" || resp.ID == "" {
		return &api.AuthError{Reason: api.ReasonRejected, Message: "server returned an incomplete session"}
	}
	user := resp.User

	m.mu.Lock()
	if err := m.store.Save(resp.Token, user); err != nil {
		m.mu.Unlock()
		m.log.Error("persisting session failed", zap.Error(err))
		return &api.AuthError{Reason: api.ReasonStorage, Err: err}
	}
	m.token, m.user, m.status = resp.Token, &user, Authenticated
	m.mu.Unlock()

	m.log.Info("session established", zap.String("user", user.ID))
	m.notify()
	return nil
}

// begin marks op as in flight, or fails with ErrBusy.
func (m *Manager) begin(op operation) (release func(), err error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	if m.inflight[op] {
		return nil, ErrBusy
	}
	m.inflight[op] = true
	return func() {
		m.opMu.Lock()
		delete(m.inflight, op)
		m.opMu.Unlock()
	}, nil
}

func (m *Manager) authenticator() Authenticator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.auth
}

// authFailure wraps a remote failure into an *api.AuthError. onRejected is
// the reason used when the server refused the credential itself.
func authFailure(err error, onRejected api.AuthReason) error {
	var (
		ae *api.AuthError
		te *api.TransportError
		pe *api.ApplicationError
	)
	switch {
	case errors.As(err, &ae):
		if ae.Reason == api.ReasonUnauthorized && onRejected == api.ReasonInvalidCredentials {
			return &api.AuthError{Reason: api.ReasonInvalidCredentials, Message: ae.Message, Err: ae.Err}
		}
		return ae
	case errors.As(err, &te):
		return &api.AuthError{Reason: api.ReasonTransport, Err: err}
	case errors.As(err, &pe):
		return &api.AuthError{Reason: api.ReasonRejected, Message: pe.Message, Err: err}
	default:
		return &api.AuthError{Reason: api.ReasonRejected, Err: err}
	}
}

func mergeProfile(upd api.ProfileUpdate, current models.User) api.ProfileUpdate {
	if upd.Name == "" {
		upd.Name = current.Name
	}
	if upd.Contact == "" {
		upd.Contact = current.Contact
	}
	if upd.Address == "" {
		upd.Address = current.Address
	}
	if upd.Location == "" {
		upd.Location = current.Location
	}
	return upd
}
