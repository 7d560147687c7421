package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/naveenspark/cmsdash/internal/tokenstore"
	"github.com/naveenspark/cmsdash/pkg/client"
	"github.com/naveenspark/cmsdash/pkg/cms"
	"github.com/naveenspark/cmsdash/pkg/domain"
)

// recorder captures every route the manager navigates to.
type recorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *recorder) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.routes)
}

// authServer answers the login endpoint: the "admin"/"secret" pair gets jwt,
// anything else gets a 400 with a nested message.
func authServer(t *testing.T, jwt string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login request carried Authorization header %q", r.Header.Get("Authorization"))
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
		if body["identifier"] != "admin" || body["password"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":[{"messages":[{"id":"Auth.form.error.invalid","message":"Identifier or password invalid."}]}]}`)) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"jwt":  jwt,
			"user": map[string]any{"id": 1, "username": "admin", "email": "admin@example.com"},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginPersistsCookieAndNavigates(t *testing.T) {
	srv := authServer(t, "abc123")
	dir := t.TempDir()
	nav := &recorder{}
	m := NewManager(tokenstore.NewFile(dir), client.New(srv.URL), nav)

	if err := m.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if m.State() != Authenticated {
		t.Errorf("State() = %v, want authenticated", m.State())
	}
	if nav.last() != RouteLanding {
		t.Errorf("navigated to %q, want %q", nav.last(), RouteLanding)
	}

	// The cookie on disk decodes to the issued token from a fresh store.
	tok, ok := tokenstore.NewFile(dir).Get()
	if !ok || tok != "abc123" {
		t.Errorf("stored token = %q, %v; want abc123, true", tok, ok)
	}
	if tok, ok := m.Token(); !ok || tok != "abc123" {
		t.Errorf("Token() = %q, %v; want abc123, true", tok, ok)
	}
	if acct := m.Account(); acct == nil || acct.Username != "admin" {
		t.Errorf("Account() = %+v, want admin", acct)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := authServer(t, "abc123")
	nav := &recorder{}
	m := NewManager(tokenstore.NewMemory(), client.New(srv.URL), nav)

	err := m.Login(context.Background(), "admin", "wrong")
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login() error = %v, want *AuthenticationError", err)
	}
	if authErr.Message == "" {
		t.Error("expected a non-empty message")
	}
	if authErr.Message != catalogFor("en").invalidCredentials {
		t.Errorf("message = %q, want the invalid-credentials message", authErr.Message)
	}
	if _, ok := m.Token(); ok {
		t.Error("expected no token after failed login")
	}
	if m.State() != Unauthenticated {
		t.Errorf("State() = %v, want unauthenticated", m.State())
	}
	if nav.count() != 0 {
		t.Errorf("navigated %d times after failed login, want 0", nav.count())
	}
}

func TestLoginMissingCredentialsSkipsNetwork(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()
	m := NewManager(tokenstore.NewMemory(), client.New(srv.URL), nil)

	for _, tc := range []struct{ id, secret string }{{"", "secret"}, {"admin", ""}, {"   ", "secret"}} {
		err := m.Login(context.Background(), tc.id, tc.secret)
		var authErr *AuthenticationError
		if !errors.As(err, &authErr) || authErr.Message != catalogFor("").missingCredentials {
			t.Errorf("Login(%q, %q) error = %v, want missing credentials", tc.id, tc.secret, err)
		}
	}
	if calls != 0 {
		t.Errorf("backend called %d times, want 0", calls)
	}
}

func TestLoginUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	m := NewManager(tokenstore.NewMemory(), client.New(url), nil, WithLocale("es_MX.UTF-8"))
	err := m.Login(context.Background(), "admin", "secret")
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("Login() error = %v, want *AuthenticationError", err)
	}
	if authErr.Message != catalogs["es"].unreachable {
		t.Errorf("message = %q, want the Spanish unreachable message", authErr.Message)
	}
}

func TestLoginKeepsExistingSessionOnFailure(t *testing.T) {
	srv := authServer(t, "abc123")
	store := tokenstore.NewMemory()
	store.Set("previous", time.Hour) //nolint:errcheck
	m := NewManager(store, client.New(srv.URL), nil)

	if err := m.Login(context.Background(), "admin", "wrong"); err == nil {
		t.Fatal("expected error")
	}
	if tok, ok := m.Token(); !ok || tok != "previous" {
		t.Errorf("Token() = %q, %v; want previous, true", tok, ok)
	}
	if m.State() != Authenticated {
		t.Errorf("State() = %v, want authenticated", m.State())
	}
}

func TestLogout(t *testing.T) {
	srv := authServer(t, "abc123")
	dir := t.TempDir()
	nav := &recorder{}
	m := NewManager(tokenstore.NewFile(dir), client.New(srv.URL), nav)
	if err := m.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	m.Logout()
	if _, ok := m.Token(); ok {
		t.Error("expected no token after logout")
	}
	if _, ok := tokenstore.NewFile(dir).Get(); ok {
		t.Error("expected session file cleared after logout")
	}
	if nav.last() != RoutePublic {
		t.Errorf("navigated to %q, want %q", nav.last(), RoutePublic)
	}

	// Logging out twice is fine.
	m.Logout()
	if m.State() != Unauthenticated {
		t.Errorf("State() = %v, want unauthenticated", m.State())
	}
}

func TestNewManagerLoadsPersistedToken(t *testing.T) {
	dir := t.TempDir()
	if err := tokenstore.NewFile(dir).Set("persisted", time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	m := NewManager(tokenstore.NewFile(dir), client.New("http://127.0.0.1:0"), nil)
	if m.State() != Authenticated {
		t.Errorf("State() = %v, want authenticated", m.State())
	}
	if tok, _ := m.Token(); tok != "persisted" {
		t.Errorf("Token() = %q, want persisted", tok)
	}
}

func TestRefreshWithoutEndpointEndsSession(t *testing.T) {
	store := tokenstore.NewMemory()
	store.Set("stale", time.Hour) //nolint:errcheck
	nav := &recorder{}
	m := NewManager(store, client.New("http://127.0.0.1:0"), nav)

	if _, err := m.Refresh(context.Background(), "stale"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Refresh() error = %v, want ErrSessionExpired", err)
	}
	if _, ok := m.Token(); ok {
		t.Error("expected token cleared")
	}
	if nav.last() != RouteLogin {
		t.Errorf("navigated to %q, want %q", nav.last(), RouteLogin)
	}

	// A second rejected call does not navigate again.
	m.Refresh(context.Background(), "stale") //nolint:errcheck
	if nav.count() != 1 {
		t.Errorf("navigated %d times, want 1", nav.count())
	}
}

func TestRefreshWithEndpoint(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/refresh" {
			t.Errorf("path = %s, want /auth/refresh", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"jwt":"fresh"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	store := tokenstore.NewMemory()
	store.Set("stale", time.Hour) //nolint:errcheck
	nav := &recorder{}
	m := NewManager(store, client.New(srv.URL), nav, WithRefreshPath("/auth/refresh"))

	tok, err := m.Refresh(context.Background(), "stale")
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if tok != "fresh" {
		t.Errorf("Refresh() = %q, want fresh", tok)
	}
	if gotAuth != "Bearer stale" {
		t.Errorf("refresh Authorization = %q, want Bearer stale", gotAuth)
	}
	if stored, _ := m.Token(); stored != "fresh" {
		t.Errorf("Token() = %q, want fresh", stored)
	}
	if nav.count() != 0 {
		t.Errorf("navigated %d times, want 0", nav.count())
	}
}

func TestRefreshEndpointFailureEndsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := tokenstore.NewMemory()
	store.Set("stale", time.Hour) //nolint:errcheck
	nav := &recorder{}
	m := NewManager(store, client.New(srv.URL), nav, WithRefreshPath("/auth/refresh"))

	if _, err := m.Refresh(context.Background(), "stale"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Refresh() error = %v, want ErrSessionExpired", err)
	}
	if nav.last() != RouteLogin {
		t.Errorf("navigated to %q, want %q", nav.last(), RouteLogin)
	}
}

func TestTokenExpiryCapsTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	m := NewManager(tokenstore.NewMemory(), nil, nil)
	m.now = func() time.Time { return now }

	if got := m.tokenTTL(signed); got != time.Hour {
		t.Errorf("tokenTTL() = %v, want 1h", got)
	}
	if got := m.tokenTTL("abc123"); got != tokenstore.DefaultTTL {
		t.Errorf("tokenTTL(opaque) = %v, want %v", got, tokenstore.DefaultTTL)
	}

	m.now = func() time.Time { return now.Add(2 * time.Hour) }
	if got := m.tokenTTL(signed); got != 0 {
		t.Errorf("tokenTTL(expired) = %v, want 0", got)
	}
}

func TestLoginRejectsExpiredToken(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	srv := authServer(t, signed)
	m := NewManager(tokenstore.NewMemory(), client.New(srv.URL), nil)

	err = m.Login(context.Background(), "admin", "secret")
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) || authErr.Message != catalogFor("").malformed {
		t.Errorf("Login() error = %v, want malformed-response message", err)
	}
	if m.State() != Unauthenticated {
		t.Errorf("State() = %v, want unauthenticated", m.State())
	}
}

func TestCatalogsComplete(t *testing.T) {
	for lang, c := range catalogs {
		for name, msg := range map[string]string{
			"missingCredentials": c.missingCredentials,
			"invalidCredentials": c.invalidCredentials,
			"malformed":          c.malformed,
			"unreachable":        c.unreachable,
			"storage":            c.storage,
			"inProgress":         c.inProgress,
		} {
			if msg == "" {
				t.Errorf("catalog %s: %s is empty", lang, name)
			}
		}
	}
	if catalogFor("fr") != catalogs["en"] {
		t.Error("unknown locale should fall back to English")
	}
}

// wired connects a manager holding token to a cms service the way the
// dashboard does: the manager authenticates through the bare client and the
// service calls through the copy that consults the manager.
func wired(t *testing.T, url, token string, opts ...Option) (*Manager, *tokenstore.Memory, *recorder, *cms.Service) {
	t.Helper()
	store := tokenstore.NewMemory()
	if err := store.Set(token, time.Hour); err != nil {
		t.Fatal(err)
	}
	nav := &recorder{}
	base := client.New(url)
	m := NewManager(store, base, nav, opts...)
	return m, store, nav, cms.New(base.WithAuth(m))
}

func mustKind(t *testing.T, slug string) domain.Kind {
	t.Helper()
	k, ok := domain.KindBySlug(slug)
	if !ok {
		t.Fatalf("unknown kind %q", slug)
	}
	return k
}

func TestConcurrentRejectedCallsShareOneRefresh(t *testing.T) {
	var mu sync.Mutex
	current, refreshes := "stale", 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		sent := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		switch r.URL.Path {
		case "/auth/refresh":
			// Each refresh rotates the token; the old one stops working.
			if sent != current {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			refreshes++
			current = fmt.Sprintf("fresh-%d", refreshes)
			json.NewEncoder(w).Encode(map[string]string{"jwt": current}) //nolint:errcheck
		case "/graphql":
			if sent != current || current == "stale" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"statusCode":401,"error":"Unauthorized","message":"Invalid token."}`)) //nolint:errcheck
				return
			}
			var body struct {
				Variables map[string]any `json:"variables"`
			}
			json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
			fmt.Fprintf(w, `{"data":{"deleteTag":{"tag":{"id":%q}}}}`, body.Variables["id"])
		}
	}))
	defer srv.Close()

	m, store, nav, svc := wired(t, srv.URL, "stale", WithRefreshPath("/auth/refresh"))
	res := svc.BulkDelete(context.Background(), mustKind(t, "tags"), []string{"1", "2", "3", "4"})

	if len(res.Deleted) != 4 || len(res.Failed) != 0 {
		t.Errorf("deleted %v, failed %v; want all four deleted", res.Deleted, res.Failed)
	}
	mu.Lock()
	defer mu.Unlock()
	if refreshes != 1 {
		t.Errorf("refresh endpoint called %d times, want 1", refreshes)
	}
	if nav.count() != 0 {
		t.Errorf("navigated %d times, last %q; want no navigation", nav.count(), nav.last())
	}
	if m.State() != Authenticated {
		t.Errorf("state = %v, want authenticated", m.State())
	}
	if tok, ok := store.Get(); !ok || tok != "fresh-1" {
		t.Errorf("stored token = %q, %v; want fresh-1", tok, ok)
	}
}

func TestRefreshReturnsAlreadyReplacedToken(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	m, _, nav, _ := wired(t, srv.URL, "fresh", WithRefreshPath("/auth/refresh"))
	tok, err := m.Refresh(context.Background(), "stale")
	if err != nil || tok != "fresh" {
		t.Fatalf("Refresh() = %q, %v; want the stored token", tok, err)
	}
	if calls != 0 || nav.count() != 0 {
		t.Errorf("calls = %d, navigations = %d; want neither", calls, nav.count())
	}
}

func TestForbiddenCallKeepsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"statusCode":403,"error":"Forbidden","message":"Forbidden"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	m, store, nav, svc := wired(t, srv.URL, "valid")
	err := svc.Delete(context.Background(), mustKind(t, "tags"), "1")
	if !client.IsForbidden(err) || client.IsUnauthorized(err) {
		t.Fatalf("error = %v, want a permission error", err)
	}
	if m.State() != Authenticated {
		t.Errorf("state = %v, want authenticated", m.State())
	}
	if tok, ok := store.Get(); !ok || tok != "valid" {
		t.Errorf("stored token = %q, %v; want valid kept", tok, ok)
	}
	if nav.count() != 0 {
		t.Errorf("navigated %d times, last %q; want no navigation", nav.count(), nav.last())
	}
}

func TestRejectedCallEndsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"statusCode":401,"error":"Unauthorized","message":"Invalid token."}`)) //nolint:errcheck
	}))
	defer srv.Close()

	m, store, nav, svc := wired(t, srv.URL, "expired")
	err := svc.Delete(context.Background(), mustKind(t, "tags"), "1")
	if !client.IsUnauthorized(err) || !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("error = %v, want an authorization error ending the session", err)
	}
	if m.State() != Unauthenticated {
		t.Errorf("state = %v, want unauthenticated", m.State())
	}
	if _, ok := store.Get(); ok {
		t.Error("rejected token should be cleared")
	}
	if nav.last() != RouteLogin || nav.count() != 1 {
		t.Errorf("navigated %d times, last %q; want one visit to %s", nav.count(), nav.last(), RouteLogin)
	}
}
