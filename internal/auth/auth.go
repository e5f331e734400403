// Package auth provides the pluggable authentication facade used by
// both the SOCKS5 and HTTP proxy front ends.
package auth

import (
	"context"
	"fmt"

	"github.com/quintusl/socksd/internal/config"
	"github.com/quintusl/socksd/internal/userstore"
)

// Authenticator verifies a username/password pair. Implementations must
// never return true for a username/password pair they could not
// positively verify; backend errors (network, database, PAM init
// failures) are logged by the implementation and folded into a false
// result rather than surfaced to the caller, so a misconfigured
// downstream system fails closed instead of leaking detail to clients.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) bool
}

// New constructs the Authenticator for cfg's configured backend.
func New(cfg config.AuthBackendConfig) (Authenticator, error) {
	switch cfg.Type {
	case config.BackendSimple:
		store, err := userstore.Load(cfg.UserConfigFile)
		if err != nil {
			return nil, fmt.Errorf("auth: loading simple backend user file: %w", err)
		}
		return NewSimple(store), nil

	case config.BackendPAM:
		return NewPAM(cfg.Service), nil

	case config.BackendLDAP:
		return NewLDAP(LDAPOptions{
			URL:          cfg.URL,
			BaseDN:       cfg.BaseDN,
			BindDN:       cfg.BindDN,
			BindPassword: cfg.BindPassword,
			UserFilter:   cfg.UserFilter,
		})

	case config.BackendDatabase:
		return NewSQL(SQLOptions{
			DBType:   cfg.DBType,
			DBURL:    cfg.DBURL,
			Query:    cfg.Query,
			HashType: cfg.HashType,
		})

	default:
		return nil, fmt.Errorf("auth: unknown backend type %q", cfg.Type)
	}
}
