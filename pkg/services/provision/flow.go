// Package provision orchestrates the probe / decide / converge flow that
// brings an Azure SQL estate onto its desired state.
package provision

import (
	"context"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Prober runs the existence and name-collision checks. The collision guard
// must run before any creation attempt or vault write.
type Prober interface {
	Probe(ctx context.Context, id domain.ResourceIdentity) (*domain.ServerHandle, error)
}

// CredentialResolver fetches or lazily creates the admin credential.
type CredentialResolver interface {
	Resolve(ctx context.Context, secretName, username string) (domain.Credential, error)
}

// RuleReconciler converges the server's firewall rules onto the desired set.
type RuleReconciler interface {
	Reconcile(ctx context.Context, id domain.ResourceIdentity, desired []domain.FirewallRule) error
}

// PolicyApplier overwrites the server's auxiliary policies.
type PolicyApplier interface {
	ApplyAuditing(ctx context.Context, id domain.ResourceIdentity, policy domain.AuditingPolicy) error
	ApplyThreatDetection(ctx context.Context, id domain.ResourceIdentity, policy domain.ThreatDetectionPolicy) error
}

// Request is one complete provisioning run: the server identity, where its
// credential lives, and the sub-resource state to converge. A nil FirewallRules
// slice means no desired-state document was referenced and the live rule set is
// left alone; a non-nil empty slice is an empty document and deletes every
// live rule.
type Request struct {
	Identity        domain.ResourceIdentity
	AdminUsername   string
	SecretName      string
	Databases       []domain.DatabaseSpec
	FirewallRules   []domain.FirewallRule
	Auditing        *domain.AuditingPolicy
	ThreatDetection *domain.ThreatDetectionPolicy
}

// Result carries the run outcome: pipeline outputs plus whether the primary
// resource was created by this run.
type Result struct {
	Outputs domain.ProvisionOutputs
	Created bool
}

// Flow is the reconciliation routine shared by every entry point. Execution is
// sequential and single-threaded; concurrent runs against the same server name
// are not safe (the probe-then-create sequence has no distributed lock).
type Flow struct {
	prober   Prober
	secrets  CredentialResolver
	creator  *Creator
	firewall RuleReconciler
	policies PolicyApplier
}

func NewFlow(
	prober Prober,
	secrets CredentialResolver,
	creator *Creator,
	firewall RuleReconciler,
	policies PolicyApplier,
) *Flow {
	return &Flow{
		prober:   prober,
		secrets:  secrets,
		creator:  creator,
		firewall: firewall,
		policies: policies,
	}
}

// Run executes one reconciliation pass. Phases:
//
//  1. Probe: look the server up in scope and guard against name collisions.
//  2. Decide: resolve the admin credential and create the server if absent.
//  3. Converge: databases, firewall rules, then auditing and threat-detection
//     policies, always applied once the server is confirmed present.
//
// Any failure before convergence is fatal and aborts the run. Policy failures
// are surfaced but do not undo prior steps.
func (f *Flow) Run(ctx context.Context, req Request) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	id := req.Identity

	handle, err := f.prober.Probe(ctx, id)
	if err != nil {
		return nil, err
	}

	cred, err := f.secrets.Resolve(ctx, req.SecretName, req.AdminUsername)
	if err != nil {
		return nil, err
	}

	handle, created, err := f.creator.EnsureServer(ctx, id, cred, handle)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info().Str("server", id.Name).Str("fqdn", handle.FQDN).Msg("server created")
	}

	for _, spec := range req.Databases {
		if err := f.creator.EnsureDatabase(ctx, id, spec); err != nil {
			return nil, err
		}
	}

	if req.FirewallRules != nil {
		if err := f.firewall.Reconcile(ctx, id, req.FirewallRules); err != nil {
			return nil, err
		}
	}

	if req.Auditing != nil {
		if err := f.policies.ApplyAuditing(ctx, id, *req.Auditing); err != nil {
			return nil, err
		}
	}
	if req.ThreatDetection != nil {
		if err := f.policies.ApplyThreatDetection(ctx, id, *req.ThreatDetection); err != nil {
			return nil, err
		}
	}

	fqdn := handle.FQDN
	if fqdn == "" {
		fqdn = id.FQDN()
	}

	return &Result{
		Outputs: domain.ProvisionOutputs{
			FullyQualifiedDomainName: fqdn,
			AdminSecret:              cred.Secret,
		},
		Created: created,
	}, nil
}
