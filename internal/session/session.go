// Package session binds the external identity provider's auth state to a
// locally materialized user session, and keeps the session's wishlist
// consistent with the server through confirm-then-merge mutations and a
// periodic background refresh.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"movex/internal/api"
	"movex/internal/cart"
	"movex/internal/domain"
	"movex/internal/identity"
)

// State is the session lifecycle state.
type State int

const (
	StateUnauthenticated State = iota
	StateInitializing
	StateAuthenticated
)

var ErrNotAuthenticated = errors.New("not authenticated")

const defaultRefreshInterval = 5 * time.Minute

// Observer is notified on auth-state transitions: with the materialized
// session after sign-in, with nil after sign-out.
type Observer func(user *domain.UserSession)

// Config configures a session Manager.
type Config struct {
	Provider        identity.Provider
	Cart            *cart.Store
	APIBaseURL      string
	RefreshInterval time.Duration
	Logger          *zap.Logger
}

// Manager owns the UserSession lifecycle. It is the single writer of the
// session's identity fields; wishlist and history mutations go through its
// operations only.
type Manager struct {
	mu           sync.Mutex
	state        State
	user         *domain.UserSession
	idToken      string
	stopRefresh  chan struct{}
	observers    map[int]Observer
	nextObserver int
	closed       bool

	provider identity.Provider
	api      *api.Client
	cart     *cart.Store
	logger   *zap.Logger
	refresh  time.Duration
}

// NewManager creates a session manager in the Unauthenticated state.
func NewManager(cfg Config) *Manager {
	refresh := cfg.RefreshInterval
	if refresh <= 0 {
		refresh = defaultRefreshInterval
	}

	m := &Manager{
		state:     StateUnauthenticated,
		observers: make(map[int]Observer),
		provider:  cfg.Provider,
		cart:      cfg.Cart,
		logger:    cfg.Logger,
		refresh:   refresh,
	}
	m.api = api.NewClient(cfg.APIBaseURL, m)
	return m
}

// IDToken supplies the current bearer token to the API client. Anonymous
// requests send no token.
func (m *Manager) IDToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idToken, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns a copy of the materialized session, or nil when signed
// out. Callers must mutate session state only through Manager operations.
func (m *Manager) Current() *domain.UserSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() *domain.UserSession {
	if m.user == nil {
		return nil
	}
	snapshot := *m.user
	snapshot.Wishlist = append([]domain.Product(nil), m.user.Wishlist...)
	snapshot.PurchaseHistory = append([]domain.PurchaseRecord(nil), m.user.PurchaseHistory...)
	return &snapshot
}

// Subscribe registers an observer for auth-state transitions and returns an
// unsubscribe handle. Unsubscribing more than once is harmless.
func (m *Manager) Subscribe(observer Observer) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextObserver
	m.nextObserver++
	m.observers[id] = observer

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// notify invokes observers outside the lock so they may call back into the
// manager.
func (m *Manager) notify() {
	m.mu.Lock()
	observers := make([]Observer, 0, len(m.observers))
	for _, o := range m.observers {
		observers = append(observers, o)
	}
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	for _, o := range observers {
		o(snapshot)
	}
}

// Register creates a new credential with the identity provider, sets the
// display name, and materializes the session. First contact with the
// wishlist endpoint also creates the user's backing record server-side.
func (m *Manager) Register(ctx context.Context, email, password, displayName string) error {
	account, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	if displayName != "" {
		updated, err := m.provider.UpdateProfile(ctx, account.IDToken, displayName, "")
		if err != nil {
			// The credential exists; a failed profile update must not block sign-in.
			m.logger.Warn("Failed to set display name during registration", zap.Error(err))
		} else {
			account = updated
		}
	}

	m.initialize(ctx, account)
	return nil
}

// Login authenticates an existing credential and materializes the session.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	account, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	m.initialize(ctx, account)
	return nil
}

// initialize enters the Initializing state, fetches the wishlist, and
// completes the transition to Authenticated. A failed fetch degrades to an
// empty wishlist; it never blocks sign-in.
func (m *Manager) initialize(ctx context.Context, account *identity.Account) {
	m.mu.Lock()
	if m.stopRefresh != nil {
		close(m.stopRefresh)
		m.stopRefresh = nil
	}
	m.state = StateInitializing
	m.idToken = account.IDToken
	m.user = &domain.UserSession{
		UID:             account.UID,
		Email:           account.Email,
		DisplayName:     account.DisplayName,
		PhotoURL:        account.PhotoURL,
		EmailVerified:   account.EmailVerified,
		Wishlist:        []domain.Product{},
		PurchaseHistory: []domain.PurchaseRecord{},
	}
	m.mu.Unlock()

	wishlist, err := m.api.Wishlist(ctx)
	if err != nil {
		m.logger.Warn("Failed to fetch wishlist during sign-in, continuing with empty wishlist",
			zap.String("uid", account.UID),
			zap.Error(err),
		)
		wishlist = []domain.Product{}
	}

	m.mu.Lock()
	// Logout, Close or a newer sign-in may have superseded this
	// initialization while the fetch was in flight; the later transition
	// wins, so do not resurrect the session or start a refresh loop against
	// a cleared or replaced token.
	if m.state != StateInitializing || m.user == nil || m.idToken != account.IDToken {
		m.mu.Unlock()
		return
	}
	m.user.Wishlist = wishlist
	m.state = StateAuthenticated
	stop := make(chan struct{})
	m.stopRefresh = stop
	m.mu.Unlock()

	go m.refreshLoop(stop)
	m.notify()
}

// Logout signs out with the provider and discards the session. The refresh
// timer is stopped before the token is cleared so no request can go out
// with a stale token.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.provider.SignOut(ctx); err != nil {
		// Local teardown proceeds regardless.
		m.logger.Warn("Provider sign-out failed", zap.Error(err))
	}

	m.mu.Lock()
	if m.stopRefresh != nil {
		close(m.stopRefresh)
		m.stopRefresh = nil
	}
	m.state = StateUnauthenticated
	m.user = nil
	m.idToken = ""
	m.mu.Unlock()

	m.notify()
	return nil
}

// ResetPassword asks the provider to dispatch a reset email.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	if err := m.provider.SendPasswordReset(ctx, email); err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}
	return nil
}

// UpdateUserData updates the provider's profile projection and mirrors the
// change into the in-memory session. The provider remains the durable
// source of truth for profile fields.
func (m *Manager) UpdateUserData(ctx context.Context, displayName, photoURL string) error {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	token := m.idToken
	m.mu.Unlock()

	account, err := m.provider.UpdateProfile(ctx, token, displayName, photoURL)
	if err != nil {
		return fmt.Errorf("profile update failed: %w", err)
	}

	m.mu.Lock()
	if m.user != nil {
		m.user.DisplayName = account.DisplayName
		m.user.PhotoURL = account.PhotoURL
	}
	m.idToken = account.IDToken
	m.mu.Unlock()

	m.notify()
	return nil
}

// Close tears the session down: the refresh timer stops and all observer
// subscriptions are disposed. The manager must not be used afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	if m.stopRefresh != nil {
		close(m.stopRefresh)
		m.stopRefresh = nil
	}
	m.state = StateUnauthenticated
	m.user = nil
	m.idToken = ""
	m.observers = make(map[int]Observer)
}
