// Package verify runs a post-provision connectivity check against a database.
package verify

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/rs/zerolog"

	_ "github.com/microsoft/go-mssqldb"
)

// Checker confirms a freshly provisioned database accepts connections. A
// failure here is surfaced but never rolls back provisioning.
type Checker struct {
	db *sql.DB
}

func NewChecker(db *sql.DB) *Checker {
	return &Checker{db: db}
}

// Open connects to a database on the given server with the admin credential.
func Open(fqdn, database string, cred domain.Credential) (*Checker, error) {
	dsn := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(cred.Username, cred.Secret),
		Host:   fqdn,
		RawQuery: url.Values{
			"database": []string{database},
			"encrypt":  []string{"true"},
		}.Encode(),
	}

	db, err := sql.Open("sqlserver", dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to open connection to %s: %w", fqdn, err)
	}
	return NewChecker(db), nil
}

// Check runs a trivial query to prove the server answers with the resolved
// credential and the firewall lets the caller through.
func (c *Checker) Check(ctx context.Context) error {
	var one int
	if err := c.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("connectivity check failed: %w", err)
	}
	if one != 1 {
		return fmt.Errorf("connectivity check returned unexpected value %d", one)
	}
	zerolog.Ctx(ctx).Info().Msg("connectivity check passed")
	return nil
}

// Close releases the underlying connection pool.
func (c *Checker) Close() error {
	return c.db.Close()
}
