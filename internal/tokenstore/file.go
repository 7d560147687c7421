package tokenstore

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

// CookieName is the name of the persisted cookie.
const CookieName = "jwt"

const (
	sessionFile = "session"
	keyFile     = "cookie.key"
)

type cookieValue struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// File persists the token as a signed cookie line in dir/session. The
// signing key lives in dir/cookie.key and is created on first write.
type File struct {
	dir string
	now func() time.Time
}

// NewFile returns a store rooted at dir. The directory is created lazily.
func NewFile(dir string) *File {
	return &File{dir: dir, now: time.Now}
}

// Path returns the session file location.
func (f *File) Path() string {
	return filepath.Join(f.dir, sessionFile)
}

func (f *File) Set(token string, ttl time.Duration) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("tokenstore: create dir: %w", err)
	}
	codec, err := f.codec(true)
	if err != nil {
		return err
	}
	expires := f.now().Add(ttl)
	encoded, err := codec.Encode(CookieName, cookieValue{Token: token, ExpiresAt: expires})
	if err != nil {
		return fmt.Errorf("tokenstore: encode: %w", err)
	}
	c := &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		Expires:  expires.UTC(),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	return writeFileAtomic(f.Path(), []byte(c.String()+"\n"))
}

func (f *File) Get() (string, bool) {
	data, err := os.ReadFile(f.Path())
	if err != nil {
		return "", false
	}
	c, err := http.ParseSetCookie(strings.TrimSpace(string(data)))
	if err != nil || c.Name != CookieName {
		return "", false
	}
	now := f.now()
	if !c.Expires.IsZero() && !now.Before(c.Expires) {
		return "", false
	}
	codec, err := f.codec(false)
	if err != nil {
		return "", false
	}
	var v cookieValue
	if err := codec.Decode(CookieName, c.Value, &v); err != nil {
		return "", false
	}
	if v.Token == "" || !now.Before(v.ExpiresAt) {
		return "", false
	}
	return v.Token, true
}

func (f *File) Clear() error {
	if err := os.Remove(f.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("tokenstore: remove session: %w", err)
	}
	return nil
}

// codec loads the signing key, generating it when create is set.
func (f *File) codec(create bool) (*securecookie.SecureCookie, error) {
	path := filepath.Join(f.dir, keyFile)
	key, err := os.ReadFile(path)
	switch {
	case err == nil && len(key) >= 32:
	case create && (errors.Is(err, os.ErrNotExist) || (err == nil && len(key) < 32)):
		key = securecookie.GenerateRandomKey(64)
		if key == nil {
			return nil, errors.New("tokenstore: generate key: no entropy")
		}
		if err := writeFileAtomic(path, key); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("tokenstore: read key: %w", err)
	default:
		return nil, errors.New("tokenstore: key too short")
	}
	codec := securecookie.New(key, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(0) // expiry is carried in the value
	codec.MaxLength(0)
	return codec, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("tokenstore: write %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("tokenstore: write %s: %w", filepath.Base(path), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("tokenstore: write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore: write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("tokenstore: write %s: %w", filepath.Base(path), err)
	}
	return nil
}
