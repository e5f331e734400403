package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/quintusl/socksd/internal/hashutil"
)

// SQLOptions configures the database-backed authenticator.
type SQLOptions struct {
	DBType   string // "mysql" or "postgres"/"pgsql"/"postgresql"
	DBURL    string
	Query    string // single-placeholder lookup, e.g. "SELECT password_hash FROM users WHERE username = $1"
	HashType string
}

// SQL authenticates by looking up a user's password hash with a single
// parameterized query and verifying it with hashutil.
type SQL struct {
	db       *sqlx.DB
	query    string
	hashType string
}

// NewSQL opens a connection pool for db_type and returns an
// Authenticator. The pool is opened eagerly (matching how the
// proxy validates its database backend at startup, not on first
// request).
func NewSQL(opts SQLOptions) (*SQL, error) {
	driver, err := sqlDriverName(opts.DBType)
	if err != nil {
		return nil, err
	}
	if opts.Query == "" {
		return nil, fmt.Errorf("auth: database backend requires a query")
	}

	db, err := sqlx.Connect(driver, opts.DBURL)
	if err != nil {
		return nil, fmt.Errorf("auth: connecting to %s database: %w", opts.DBType, err)
	}

	return &SQL{db: db, query: rebindQuery(driver, opts.Query), hashType: opts.HashType}, nil
}

func sqlDriverName(dbType string) (string, error) {
	switch strings.ToLower(dbType) {
	case "mysql":
		return "mysql", nil
	case "postgres", "pgsql", "postgresql":
		return "pgx", nil
	default:
		return "", fmt.Errorf("auth: unsupported database type %q", dbType)
	}
}

func rebindQuery(driver, query string) string {
	bind := sqlx.QUESTION
	if driver == "pgx" {
		bind = sqlx.DOLLAR
	}
	return sqlx.Rebind(bind, query)
}

func (a *SQL) Authenticate(ctx context.Context, username, password string) bool {
	var hash string
	err := a.db.GetContext(ctx, &hash, a.query, username)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		slog.Debug("sql auth user not found", "username", username)
		return false
	case err != nil:
		slog.Error("sql auth query error", "username", username, "err", err)
		return false
	}
	return hashutil.Verify(a.hashType, password, hash)
}
