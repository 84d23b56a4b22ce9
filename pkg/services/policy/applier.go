// Package policy applies auditing and threat-detection policies to a server.
package policy

import (
	"context"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Store is the provider-side policy surface.
type Store interface {
	ApplyAuditingPolicy(ctx context.Context, id domain.ResourceIdentity, policy domain.AuditingPolicy) error
	ApplyThreatDetectionPolicy(ctx context.Context, id domain.ResourceIdentity, policy domain.ThreatDetectionPolicy) error
}

// Applier overwrites server policies unconditionally. There is no create-if-
// absent here: policies are always applied once the server is confirmed
// present, whether it was just created or already existed.
type Applier struct {
	store Store
}

func NewApplier(store Store) *Applier {
	return &Applier{store: store}
}

func (a *Applier) ApplyAuditing(ctx context.Context, id domain.ResourceIdentity, policy domain.AuditingPolicy) error {
	if err := a.store.ApplyAuditingPolicy(ctx, id, policy); err != nil {
		return &domain.PolicyApplyError{Server: id.Name, Policy: "auditing", Err: err}
	}
	zerolog.Ctx(ctx).Info().
		Str("server", id.Name).
		Str("storage_account", policy.StorageAccount).
		Int32("retention_days", policy.RetentionDays).
		Msg("auditing policy applied")
	return nil
}

func (a *Applier) ApplyThreatDetection(
	ctx context.Context,
	id domain.ResourceIdentity,
	policy domain.ThreatDetectionPolicy,
) error {
	if err := a.store.ApplyThreatDetectionPolicy(ctx, id, policy); err != nil {
		return &domain.PolicyApplyError{Server: id.Name, Policy: "threat detection", Err: err}
	}
	zerolog.Ctx(ctx).Info().
		Str("server", id.Name).
		Strs("recipients", policy.Recipients).
		Msg("threat detection policy applied")
	return nil
}
