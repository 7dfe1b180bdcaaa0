package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Session tracks the bearer token of the signed-in user. The token is kept
// in a file so it survives between CLI invocations. Issuing tokens is not
// this package's job; it only stores what it's given.
type Session struct {
	mu    sync.RWMutex
	path  string
	token string
}

// Open loads the session stored at path. A missing file means signed out.
func Open(path string) (*Session, error) {
	s := &Session{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	s.token = strings.TrimSpace(string(data))
	return s, nil
}

// NewStatic returns an in-memory session, mostly useful in tests.
func NewStatic(token string) *Session {
	return &Session{token: token}
}

// Token returns the current bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// SignIn stores token and persists it.
func (s *Session) SignIn(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
			return err
		}
		if err := os.WriteFile(s.path, []byte(token+"\n"), 0600); err != nil {
			return fmt.Errorf("write session: %w", err)
		}
	}
	s.token = token
	return nil
}

// SignOut forgets the token.
func (s *Session) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session: %w", err)
		}
	}
	s.token = ""
	return nil
}
