// Package admin gates moderation behind a single administrator login.
package admin

import (
	"crypto/subtle"
	"sync"

	"fiesta/internal/storage/blobstore"
	"fiesta/internal/utils"
)

// StorageKey names the blob holding the admin session flag.
const StorageKey = "adminSession"

// Session tracks whether the administrator is logged in, persisted so the
// flag survives restarts.
type Session struct {
	mu          sync.Mutex
	username    string
	password    string
	loggedIn    bool
	persistence blobstore.Store
	logger      *utils.Logger
}

// NewSession builds the gate from configured credentials and restores any
// persisted login flag. Empty credentials disable login entirely.
func NewSession(username, password string, persistence blobstore.Store) *Session {
	s := &Session{
		username:    username,
		password:    password,
		persistence: persistence,
		logger:      utils.NewComponentLogger("AdminSession"),
	}
	if blob, found, err := persistence.Load(StorageKey); err == nil && found {
		s.loggedIn = string(blob) == "true"
	}
	return s
}

// Login verifies the credentials and persists the session flag. The compare
// is constant time.
func (s *Session) Login(username, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.username == "" || s.password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1
	if !userOK || !passOK {
		s.logger.Warn("admin login rejected for %q", username)
		return false
	}
	s.loggedIn = true
	s.saveFlag("true")
	return true
}

// Logout clears the session flag.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = false
	s.saveFlag("false")
}

// LoggedIn reports whether the administrator is authenticated.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

func (s *Session) saveFlag(value string) {
	if err := s.persistence.Save(StorageKey, []byte(value)); err != nil {
		s.logger.Error("persist admin session: %v", err)
	}
}
