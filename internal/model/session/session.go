package session

import "errors"

// Persisted key names, shared by every Store implementation.
const (
	KeyToken    = "token"
	KeyUsername = "username"
)

// ErrInvalidSession is returned when a session is written without a token.
var ErrInvalidSession = errors.New("session token is required")

// Session is the authenticated identity held between login and logout.
type Session struct {
	Token       string `json:"token"`
	DisplayName string `json:"username"`
}

// Store persists the single active session. Token and display name are
// always written and removed together.
type Store interface {
	Set(token, displayName string) error
	Token() (string, bool)
	Current() (Session, bool)
	Clear() error
}
