// Package client is the notes API consumer: an HTTP client for the REST
// endpoints plus the view state a front end renders. Every component takes
// the Session explicitly; nothing reads tokens or users from globals.
package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"notesapp/internal/auth"
)

// Session is the logged-in state shared by the view, composer and nav bar.
// A nil User means logged out.
type Session struct {
	Token string
	User  *auth.User
}

func (s Session) LoggedIn() bool {
	return s.Token != "" && s.User != nil
}

// TokenStore persists the bearer token between runs.
type TokenStore struct {
	Path string
}

// DefaultTokenStore keeps the token under the user's config directory.
func DefaultTokenStore() (TokenStore, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return TokenStore{}, fmt.Errorf("resolve config dir: %w", err)
	}
	return TokenStore{Path: filepath.Join(dir, "notesapp", "token")}, nil
}

// Load returns the stored token, or "" when none is stored.
func (s TokenStore) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token %q: %w", s.Path, err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (s TokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token %q: %w", s.Path, err)
	}
	return nil
}

// Clear removes the stored token. Clearing an absent token is not an error.
func (s TokenStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token %q: %w", s.Path, err)
	}
	return nil
}
