package session

import "sync"

// Session holds the signed-in user's identity and bearer token. It is
// injected into every component that talks to the backend instead of
// being looked up from ambient global state. Set at login, cleared at
// logout or when the server answers 401.
type Session struct {
	mu       sync.RWMutex
	userID   string
	userName string
	token    string
}

// New creates a Session with the given credentials. Empty values mean
// no user is signed in.
func New(userID, userName, token string) *Session {
	return &Session{userID: userID, userName: userName, token: token}
}

// SetCredentials replaces the session identity, e.g. after a login.
func (s *Session) SetCredentials(userID, userName, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.userName = userName
	s.token = token
}

// Clear wipes the session, forcing re-authentication.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.userName = ""
	s.token = ""
}

// UserID returns the signed-in user's identifier, or "" if signed out.
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// UserName returns the signed-in user's display name.
func (s *Session) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userName
}

// Token returns the bearer token attached to every request.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Active reports whether a user is currently signed in.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID != ""
}
