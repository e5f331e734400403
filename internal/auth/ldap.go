package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// LDAPOptions configures the three-phase bind-search-bind LDAP backend.
type LDAPOptions struct {
	URL          string
	BaseDN       string
	BindDN       string // empty means anonymous initial bind
	BindPassword string
	UserFilter   string // e.g. "(uid={})"
}

// LDAP authenticates by binding as a search account (or anonymously),
// searching for the user's DN, then rebinding as that DN with the
// supplied password.
type LDAP struct {
	opts LDAPOptions
}

// NewLDAP validates opts and returns an Authenticator.
func NewLDAP(opts LDAPOptions) (*LDAP, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("auth: ldap backend requires a url")
	}
	if opts.BaseDN == "" {
		return nil, fmt.Errorf("auth: ldap backend requires a base_dn")
	}
	if opts.UserFilter == "" {
		opts.UserFilter = "(uid={})"
	}
	return &LDAP{opts: opts}, nil
}

// buildUserFilter substitutes the RFC 4515-escaped username into the "{}"
// placeholder of template, so a username like "admin)(uid=*" can't widen
// or redirect the search filter.
func buildUserFilter(template, username string) string {
	return strings.ReplaceAll(template, "{}", ldap.EscapeFilter(username))
}

func (a *LDAP) Authenticate(ctx context.Context, username, password string) bool {
	conn, err := ldap.DialURL(a.opts.URL)
	if err != nil {
		slog.Error("ldap connect failed", "err", err)
		return false
	}
	defer conn.Close()

	// 1. bind to search for the user, either as a dedicated search
	// account or anonymously.
	if err := conn.Bind(a.opts.BindDN, a.opts.BindPassword); err != nil {
		slog.Error("ldap initial bind failed", "err", err)
		return false
	}

	// 2. search for the user's DN.
	filter := buildUserFilter(a.opts.UserFilter, username)
	req := ldap.NewSearchRequest(
		a.opts.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter, []string{"dn"}, nil,
	)
	result, err := conn.Search(req)
	if err != nil {
		slog.Error("ldap search failed", "username", username, "err", err)
		return false
	}
	if len(result.Entries) == 0 {
		slog.Debug("ldap user not found", "username", username)
		return false
	}
	if len(result.Entries) > 1 {
		slog.Debug("ldap user ambiguous, multiple matches", "username", username)
		return false
	}
	userDN := result.Entries[0].DN

	// 3. verify the password by rebinding as the user. A bind failure
	// here — wrong password or transient network error — both mean
	// authentication did not succeed; only the log distinguishes them.
	if err := conn.Bind(userDN, password); err != nil {
		slog.Debug("ldap verify bind failed", "username", username, "err", err)
		return false
	}
	return true
}
