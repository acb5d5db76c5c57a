package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"useradmin/m/domain"
)

// Session is the locally cached login state. The role is whatever the
// server said at login time and may be stale.
type Session struct {
	Username string      `json:"username"`
	Token    string      `json:"token"`
	Role     domain.Role `json:"role"`
}

func (s *Session) LoggedIn() bool {
	return s != nil && s.Token != ""
}

// SessionFile persists a Session as JSON.
type SessionFile struct {
	Path string
}

// DefaultSessionPath is ~/.useradmin/session.json.
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".useradmin-session.json"
	}
	return filepath.Join(home, ".useradmin", "session.json")
}

// Load returns an empty session when the file does not exist.
func (f SessionFile) Load() (*Session, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", f.Path, err)
	}
	return &s, nil
}

func (f SessionFile) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o600)
}

// Clear removes the cached session. A missing file is not an error.
func (f SessionFile) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
