// Package session owns the dashboard's login/logout lifecycle and the
// current bearer token. Screens read the token through Manager and never
// touch the token store directly.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/naveenspark/cmsdash/internal/tokenstore"
	"github.com/naveenspark/cmsdash/pkg/client"
	"github.com/naveenspark/cmsdash/pkg/domain"
)

// Routes the manager navigates to.
const (
	RouteLanding = "/dashboard/posts"
	RoutePublic  = "/"
	RouteLogin   = "/login"
)

// ErrSessionExpired is returned by Refresh when the session could not be
// renewed and has been ended.
var ErrSessionExpired = errors.New("session expired")

// State is the session lifecycle state.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Authenticator talks to the backend's authentication endpoints.
type Authenticator interface {
	Authenticate(ctx context.Context, identifier, secret string) (*domain.AuthResult, error)
	RefreshToken(ctx context.Context, path, token string) (string, error)
}

// Navigator moves the dashboard to a route.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Manager is the single session service shared by every screen.
type Manager struct {
	store       tokenstore.Store
	auth        Authenticator
	nav         Navigator
	logger      *slog.Logger
	ttl         time.Duration
	refreshPath string
	messages    catalog
	now         func() time.Time

	refreshes singleflight.Group

	mu      sync.Mutex
	state   State
	account *domain.Account
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithTTL overrides how long a new token is stored.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

// WithRefreshPath enables token refresh against the given endpoint.
func WithRefreshPath(p string) Option {
	return func(m *Manager) { m.refreshPath = p }
}

// WithLocale selects the language of user-facing messages.
func WithLocale(locale string) Option {
	return func(m *Manager) { m.messages = catalogFor(locale) }
}

// NewManager creates the session service and loads any persisted token.
// nav may be nil, in which case navigation is skipped.
func NewManager(store tokenstore.Store, auth Authenticator, nav Navigator, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		auth:     auth,
		nav:      nav,
		logger:   slog.New(slog.DiscardHandler),
		ttl:      tokenstore.DefaultTTL,
		messages: catalogFor(""),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if _, ok := store.Get(); ok {
		m.state = Authenticated
	}
	return m
}

// SetNavigator replaces the navigator. The dashboard wires itself in after
// the program is created.
func (m *Manager) SetNavigator(nav Navigator) {
	m.mu.Lock()
	m.nav = nav
	m.mu.Unlock()
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Account returns the account returned by the last login, if any.
func (m *Manager) Account() *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account
}

// Token returns the current token. An expired or missing token moves the
// session to Unauthenticated.
func (m *Manager) Token() (string, bool) {
	tok, ok := m.store.Get()
	if !ok {
		m.mu.Lock()
		if m.state == Authenticated {
			m.state = Unauthenticated
			m.account = nil
		}
		m.mu.Unlock()
	}
	return tok, ok
}

// Login authenticates with the backend, persists the issued token and
// navigates to the landing route. Failures return *AuthenticationError and
// leave the stored token untouched.
func (m *Manager) Login(ctx context.Context, identifier, secret string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return &AuthenticationError{Message: m.messages.missingCredentials}
	}

	m.mu.Lock()
	if m.state == Authenticating {
		m.mu.Unlock()
		return &AuthenticationError{Message: m.messages.inProgress}
	}
	prev := m.state
	m.state = Authenticating
	m.mu.Unlock()

	res, err := m.auth.Authenticate(ctx, identifier, secret)
	if err != nil {
		m.fail(prev)
		m.logger.Info("login failed", "identifier", identifier, "error", err)
		return &AuthenticationError{Message: m.messageFor(err), Err: err}
	}

	ttl := m.tokenTTL(res.JWT)
	if ttl <= 0 {
		m.fail(prev)
		m.logger.Info("login returned an expired token", "identifier", identifier)
		return &AuthenticationError{Message: m.messages.malformed}
	}
	if err := m.store.Set(res.JWT, ttl); err != nil {
		m.fail(prev)
		m.logger.Error("persist token", "error", err)
		return &AuthenticationError{Message: m.messages.storage, Err: err}
	}

	m.mu.Lock()
	m.state = Authenticated
	m.account = res.User
	nav := m.nav
	m.mu.Unlock()

	m.logger.Info("login succeeded", "identifier", identifier)
	if nav != nil {
		nav.Navigate(RouteLanding)
	}
	return nil
}

// fail restores the pre-login state. A session that was not authenticated
// before stays unauthenticated; an existing valid token is kept.
func (m *Manager) fail(prev State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev == Authenticated {
		if _, ok := m.store.Get(); ok {
			m.state = Authenticated
			return
		}
	}
	m.state = Unauthenticated
}

// Logout clears the stored token and navigates to the public entry route.
// It always succeeds.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("clear token", "error", err)
	}
	m.mu.Lock()
	m.state = Unauthenticated
	m.account = nil
	nav := m.nav
	m.mu.Unlock()

	m.logger.Info("logged out")
	if nav != nil {
		nav.Navigate(RoutePublic)
	}
}

// Refresh is called by the request client when the backend rejects the
// token a call carried. Concurrent callers share one exchange, and a caller
// whose rejected token was already replaced gets the stored token back.
// With a refresh endpoint configured the token is exchanged for a new one;
// otherwise, or if the exchange fails, the session ends, the dashboard
// navigates to the login route and ErrSessionExpired is returned.
func (m *Manager) Refresh(ctx context.Context, rejected string) (string, error) {
	v, err, _ := m.refreshes.Do("refresh", func() (any, error) {
		return m.refresh(ctx, rejected)
	})
	tok, _ := v.(string)
	return tok, err
}

func (m *Manager) refresh(ctx context.Context, rejected string) (string, error) {
	current, ok := m.store.Get()
	if ok && current != rejected {
		m.logger.Debug("token already refreshed")
		return current, nil
	}
	if ok && m.refreshPath != "" {
		fresh, err := m.auth.RefreshToken(ctx, m.refreshPath, current)
		if err == nil {
			if ttl := m.tokenTTL(fresh); ttl > 0 {
				err = m.store.Set(fresh, ttl)
			} else {
				err = errors.New("refreshed token already expired")
			}
		}
		if err == nil {
			m.mu.Lock()
			m.state = Authenticated
			m.mu.Unlock()
			m.logger.Info("token refreshed")
			return fresh, nil
		}
		m.logger.Warn("token refresh failed", "error", err)
	}

	if err := m.store.Clear(); err != nil {
		m.logger.Warn("clear token", "error", err)
	}
	m.mu.Lock()
	wasAuthenticated := m.state != Unauthenticated
	m.state = Unauthenticated
	m.account = nil
	nav := m.nav
	m.mu.Unlock()

	// Concurrent rejected calls all land here; only the first one navigates.
	if wasAuthenticated {
		m.logger.Info("session expired")
		if nav != nil {
			nav.Navigate(RouteLogin)
		}
	}
	return "", ErrSessionExpired
}

// tokenTTL caps the configured TTL by the token's own exp claim. Tokens
// that are not JWTs, or carry no exp, get the configured TTL.
func (m *Manager) tokenTTL(token string) time.Duration {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return m.ttl
	}
	left := claims.ExpiresAt.Sub(m.now())
	if left <= 0 {
		return 0
	}
	return min(left, m.ttl)
}

func (m *Manager) messageFor(err error) string {
	var httpErr *client.HTTPError
	var netErr *client.NetworkError
	switch {
	case errors.Is(err, client.ErrNoToken), errors.Is(err, client.ErrMalformedResponse):
		return m.messages.malformed
	case errors.As(err, &netErr):
		return m.messages.unreachable
	case errors.As(err, &httpErr) && httpErr.StatusCode >= 500:
		return m.messages.unreachable
	default:
		return m.messages.invalidCredentials
	}
}

// AuthenticationError is returned by Login. Message is localized and
// suitable for display on the login form.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AuthenticationError) Unwrap() error { return e.Err }
