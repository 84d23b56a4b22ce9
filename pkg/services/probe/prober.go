// Package probe answers whether a server already exists, both within the
// subscription and anywhere in the provider's public namespace.
package probe

import (
	"context"
	"fmt"
	"net"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// ServerIndex is the in-scope resource lookup. A nil handle with nil error
// means the server is not visible in the subscription.
type ServerIndex interface {
	GetServer(ctx context.Context, id domain.ResourceIdentity) (*domain.ServerHandle, error)
}

// Resolver resolves public DNS names. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

type Prober struct {
	index    ServerIndex
	resolver Resolver
}

func NewProber(index ServerIndex, resolver Resolver) *Prober {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Prober{index: index, resolver: resolver}
}

// Exists queries the subscription for a server by exact name. Absence is a
// normal outcome, not an error.
func (p *Prober) Exists(ctx context.Context, id domain.ResourceIdentity) (*domain.ServerHandle, error) {
	handle, err := p.index.GetServer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to probe server %s: %w", id, err)
	}
	return handle, nil
}

// GloballyResolvable reports whether the candidate FQDN resolves anywhere,
// including outside the caller's subscription. Lookup failures (NXDOMAIN
// included) mean the name is free.
func (p *Prober) GloballyResolvable(ctx context.Context, fqdn string) bool {
	addrs, err := p.resolver.LookupHost(ctx, fqdn)
	return err == nil && len(addrs) > 0
}

// Probe runs the existence check and the collision guard in the order creation
// safety requires: a name that resolves publicly but is not visible in scope is
// claimed by a third party, and creation must not be attempted.
func (p *Prober) Probe(ctx context.Context, id domain.ResourceIdentity) (*domain.ServerHandle, error) {
	logger := zerolog.Ctx(ctx)

	handle, err := p.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if handle != nil {
		logger.Info().Str("server", id.Name).Msg("server already exists in subscription")
		return handle, nil
	}

	fqdn := id.FQDN()
	if p.GloballyResolvable(ctx, fqdn) {
		return nil, &domain.NameCollisionError{Name: id.Name, FQDN: fqdn}
	}

	logger.Info().Str("server", id.Name).Msg("server not found, name is free")
	return nil, nil
}
