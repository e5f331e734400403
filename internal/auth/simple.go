package auth

import "context"

// userstoreVerifier is the subset of *userstore.Store that Simple needs.
type userstoreVerifier interface {
	VerifyPassword(username, password string) bool
}

// Simple authenticates against an internal/userstore.Store loaded from
// the credential file named by auth.user_config_file.
type Simple struct {
	store userstoreVerifier
}

// NewSimple wraps store as an Authenticator.
func NewSimple(store userstoreVerifier) *Simple {
	return &Simple{store: store}
}

func (s *Simple) Authenticate(_ context.Context, username, password string) bool {
	return s.store.VerifyPassword(username, password)
}
