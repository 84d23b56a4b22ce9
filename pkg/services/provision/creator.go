package provision

import (
	"context"
	"fmt"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// ServerStore issues primary resource creation calls.
type ServerStore interface {
	CreateServer(ctx context.Context, id domain.ResourceIdentity, cred domain.Credential) (*domain.ServerHandle, error)
}

// DatabaseStore manages databases on an existing server.
type DatabaseStore interface {
	DatabaseExists(ctx context.Context, id domain.ResourceIdentity, name string) (bool, error)
	CreateDatabase(ctx context.Context, id domain.ResourceIdentity, spec domain.DatabaseSpec) error
}

// Creator performs idempotent create-if-absent for servers and databases.
// Creation failures are terminal for the run: partial retries against an
// infrastructure control plane risk duplicate or inconsistent resources.
type Creator struct {
	servers   ServerStore
	databases DatabaseStore
}

func NewCreator(servers ServerStore, databases DatabaseStore) *Creator {
	return &Creator{servers: servers, databases: databases}
}

// EnsureServer returns the existing handle when the probe already found the
// server, otherwise issues a single creation call. Any creation failure is
// wrapped in CreationError with the cause preserved.
func (c *Creator) EnsureServer(
	ctx context.Context,
	id domain.ResourceIdentity,
	cred domain.Credential,
	existing *domain.ServerHandle,
) (*domain.ServerHandle, bool, error) {
	if existing != nil {
		return existing, false, nil
	}

	zerolog.Ctx(ctx).Info().
		Str("server", id.Name).
		Str("resource_group", id.ResourceGroup).
		Str("location", string(id.Location)).
		Msg("creating server")

	handle, err := c.servers.CreateServer(ctx, id, cred)
	if err != nil {
		return nil, false, &domain.CreationError{Resource: id.Name, Err: err}
	}
	return handle, true, nil
}

// EnsureDatabase creates the database if absent. An existing database is never
// updated by this flow.
func (c *Creator) EnsureDatabase(ctx context.Context, id domain.ResourceIdentity, spec domain.DatabaseSpec) error {
	exists, err := c.databases.DatabaseExists(ctx, id, spec.Name)
	if err != nil {
		return fmt.Errorf("failed to probe database %q on %s: %w", spec.Name, id, err)
	}
	if exists {
		zerolog.Ctx(ctx).Info().Str("database", spec.Name).Msg("database already exists, skipping")
		return nil
	}

	zerolog.Ctx(ctx).Info().
		Str("database", spec.Name).
		Str("edition", string(spec.Edition)).
		Msg("creating database")

	if err := c.databases.CreateDatabase(ctx, id, spec); err != nil {
		return &domain.CreationError{Resource: fmt.Sprintf("%s/%s", id.Name, spec.Name), Err: err}
	}
	return nil
}
