// Package firewall converges a server's live firewall rules onto a declarative
// desired-state document.
package firewall

import (
	"context"
	"fmt"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// RuleStore is the provider-side rule set the reconciler converges.
type RuleStore interface {
	ListFirewallRules(ctx context.Context, id domain.ResourceIdentity) ([]domain.FirewallRule, error)
	UpsertFirewallRule(ctx context.Context, id domain.ResourceIdentity, rule domain.FirewallRule) error
	DeleteFirewallRule(ctx context.Context, id domain.ResourceIdentity, name string) error
}

type Reconciler struct {
	store RuleStore
}

func NewReconciler(store RuleStore) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile makes the live rule set equal the desired set. The desired
// document is the sole source of truth: rules absent from it are deleted
// unconditionally. Re-running with the same document is a no-op; a shrunk
// document deletes rules; a superset adds them.
func (r *Reconciler) Reconcile(ctx context.Context, id domain.ResourceIdentity, desired []domain.FirewallRule) error {
	logger := zerolog.Ctx(ctx)

	live, err := r.store.ListFirewallRules(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch live firewall rules for %s: %w", id, err)
	}

	liveByName := make(map[string]domain.FirewallRule, len(live))
	for _, rule := range live {
		liveByName[rule.Name] = rule
	}

	desiredNames := make(map[string]struct{}, len(desired))
	for _, rule := range desired {
		desiredNames[rule.Name] = struct{}{}

		if existing, ok := liveByName[rule.Name]; ok && existing.Equal(rule) {
			continue
		}
		if err := r.store.UpsertFirewallRule(ctx, id, rule); err != nil {
			return fmt.Errorf("failed to apply firewall rule %q on %s: %w", rule.Name, id, err)
		}
		logger.Info().
			Str("rule", rule.Name).
			Str("start", rule.StartIPAddress).
			Str("end", rule.EndIPAddress).
			Msg("firewall rule applied")
	}

	for _, rule := range live {
		if _, ok := desiredNames[rule.Name]; ok {
			continue
		}
		if err := r.store.DeleteFirewallRule(ctx, id, rule.Name); err != nil {
			return fmt.Errorf("failed to delete firewall rule %q on %s: %w", rule.Name, id, err)
		}
		logger.Info().Str("rule", rule.Name).Msg("firewall rule removed, not in desired set")
	}

	return nil
}
